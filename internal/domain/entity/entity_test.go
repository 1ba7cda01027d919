package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

func tags(names ...string) []entity.Tag {
	out := make([]entity.Tag, len(names))
	for i, n := range names {
		out[i] = entity.Tag{ID: int64(i + 1), Name: n}
	}
	return out
}

func TestEventTags(t *testing.T) {
	e := &entity.Event{Tags: tags(entity.TagSWC, entity.TagAutomatedEmail)}
	assert.True(t, e.HasCarpentriesTag())
	assert.True(t, e.IsActive())
	assert.Equal(t, "SWC, automated-email", e.TagNames())

	ttt := &entity.Event{Tags: tags(entity.TagTTT)}
	assert.False(t, ttt.HasCarpentriesTag())

	cancelled := &entity.Event{Tags: tags(entity.TagDC, entity.TagCancelled)}
	assert.False(t, cancelled.IsActive())
}

func TestEventOrganisation(t *testing.T) {
	var e entity.Event
	assert.False(t, e.IsSelfOrganised())
	assert.False(t, e.IsCentrallyOrganised())

	e.Administrator = &entity.Organization{Domain: entity.DomainSelfOrganised}
	assert.True(t, e.IsSelfOrganised())
	assert.False(t, e.IsCentrallyOrganised())

	e.Administrator = &entity.Organization{Domain: entity.DomainCommunityLessons}
	assert.True(t, e.IsCommunityLesson())
	assert.True(t, e.IsCentrallyOrganised())
}

func TestEventDates(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	var e entity.Event
	assert.False(t, e.StartsOnOrAfter(today))

	start := today
	end := today.AddDate(0, 0, -1)
	e.Start, e.End = &start, &end
	assert.True(t, e.StartsOnOrAfter(today))
	assert.False(t, e.EndsOnOrAfter(today))
}

func TestEventRoles(t *testing.T) {
	hermione := &entity.Person{ID: 1, Email: "hg@magic.uk"}
	ron := &entity.Person{ID: 2}
	minerva := &entity.Person{ID: 3, Email: "mm@magic.uk"}
	e := &entity.Event{Tasks: []*entity.Task{
		{Role: entity.RoleInstructor, Person: hermione},
		{Role: entity.RoleHost, Person: minerva},
		{Role: entity.RoleInstructor, Person: ron},
		{Role: entity.RoleInstructor},
	}}
	assert.Equal(t, []*entity.Person{hermione, ron}, e.Instructors())
	assert.Equal(t, []*entity.Person{minerva}, e.Hosts())
	assert.Empty(t, e.Helpers())
	assert.Equal(t, []string{"hg@magic.uk"}, entity.Emails(e.Instructors()))
}

func TestPersonNames(t *testing.T) {
	p := &entity.Person{Personal: "Hermione", Middle: " ", Family: "Granger"}
	assert.Equal(t, "Hermione Granger", p.FullName())
	assert.Equal(t, "Hermione Granger", p.String())
	p.Email = "hg@magic.uk"
	assert.Equal(t, "Hermione Granger <hg@magic.uk>", p.String())
}

func TestRelation(t *testing.T) {
	r := entity.RelationOf(&entity.Event{ID: 7})
	assert.Equal(t, "event#7", r.String())
	assert.False(t, r.IsZero())
	assert.True(t, entity.Relation{}.IsZero())
}

func TestScheduledEmailState(t *testing.T) {
	assert.True(t, entity.StateFailed.Valid())
	assert.False(t, entity.ScheduledEmailState("sent").Valid())
}

func TestEmailTemplateValidate(t *testing.T) {
	tpl := &entity.EmailTemplate{
		Name:       "Welcome",
		Signal:     "persons_merged",
		FromHeader: "team@carpentries.org",
		CCHeader:   []string{"ok@carpentries.org"},
		Subject:    "Hi",
		Body:       "Body",
	}
	require.NoError(t, tpl.Validate([]string{"persons_merged"}))

	tpl.Signal = "birthday"
	tpl.CCHeader = append(tpl.CCHeader, "nope")
	err := tpl.Validate([]string{"persons_merged"})
	require.Error(t, err)
	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "signal")
	assert.Contains(t, errs, "cc_header")

	tpl.CCHeader = nil
	assert.NoError(t, tpl.Validate(nil), "an unknown signal is fine without a signal list")
}
