package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

type triggerData struct {
	Results  map[string]string `json:"results"`
	Messages []emails.Message  `json:"messages"`
}

func (f *fixture) scheduled(t *testing.T, name signal.Name, m entity.Model) []*entity.ScheduledEmail {
	t.Helper()
	found, err := f.emails.FindByRelation(context.Background(), string(name), entity.RelationOf(m), entity.StateScheduled)
	require.NoError(t, err)
	return found
}

func acceptedSignup(f *fixture) *entity.InstructorRecruitmentSignup {
	p := &entity.Person{ID: 1, Personal: "Hermione", Family: "Granger", Email: "hermione@magic.uk"}
	s := &entity.InstructorRecruitmentSignup{ID: 11, RecruitmentID: 3, Event: workshop(1), PersonID: p.ID, Person: p, State: entity.SignupAccepted}
	f.repo.AddSignup(s)
	return s
}

func TestTriggerHandler_Signup(t *testing.T) {
	f := newFixture(t)
	s := acceptedSignup(f)

	w, env := f.do(t, http.MethodPost, "/api/emails/triggers/signup/11", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode[triggerData](t, env.Data)
	assert.Equal(t, "create", data.Results[string(signal.InstructorConfirmedForWorkshop)])
	assert.Equal(t, "noop", data.Results[string(signal.InstructorDeclinedFromWorkshop)])
	require.Len(t, data.Messages, 1)
	assert.Contains(t, data.Messages[0].Text, "New email action was scheduled")

	found := f.scheduled(t, signal.InstructorConfirmedForWorkshop, s)
	require.Len(t, found, 1)
	logs, err := f.emails.Logs(context.Background(), found[0].ID)
	require.NoError(t, err)
	require.NotNil(t, logs[0].AuthorID)
	assert.Equal(t, adminID, *logs[0].AuthorID)
}

func TestTriggerHandler_DryRun(t *testing.T) {
	f := newFixture(t)
	s := acceptedSignup(f)

	w, env := f.do(t, http.MethodPost, "/api/emails/triggers/signup/11?dry_run=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "create", decode[triggerData](t, env.Data).Results[string(signal.InstructorConfirmedForWorkshop)])
	assert.JSONEq(t, `{"dry_run": true}`, string(env.Meta))
	assert.Empty(t, f.scheduled(t, signal.InstructorConfirmedForWorkshop, s))
}

func TestTriggerHandler_RemovedAwardCancels(t *testing.T) {
	f := newFixture(t)
	p := &entity.Person{ID: 5, Personal: "Luna", Family: "Lovegood", Email: "luna@magic.uk"}
	award := &entity.Award{
		ID:        21,
		PersonID:  p.ID,
		Person:    p,
		Badge:     entity.Badge{ID: 1, Name: entity.BadgeInstructor, Title: "Certified Instructor"},
		AwardedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	f.repo.AddAward(award)

	w, env := f.do(t, http.MethodPost, "/api/emails/triggers/award/21", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "create", decode[triggerData](t, env.Data).Results[string(signal.InstructorBadgeAwarded)])
	require.Len(t, f.scheduled(t, signal.InstructorBadgeAwarded, award), 1)
	assert.Len(t, f.storage.objects, 1)

	f.repo.RemoveAward(award.ID)
	w, _ = f.do(t, http.MethodPost, "/api/emails/triggers/award/21", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = f.do(t, http.MethodPost, "/api/emails/triggers/award/21?person_id=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancel", decode[triggerData](t, env.Data).Results[string(signal.InstructorBadgeAwarded)])
	assert.Empty(t, f.scheduled(t, signal.InstructorBadgeAwarded, award))
}

func TestTriggerHandler_BadRequests(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/emails/triggers/invoice/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/emails/triggers/event/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := f.do(t, http.MethodPost, "/api/emails/triggers/event/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "event not found", env.Message)
}

func TestTriggerHandler_CreateOnlyActions(t *testing.T) {
	f := newFixture(t)
	p := &entity.Person{ID: 4, Personal: "Neville", Family: "Longbottom", Email: "neville@magic.uk"}
	f.repo.AddPerson(p)
	s := acceptedSignup(f)

	w, _ := f.do(t, http.MethodPost, "/api/emails/actions/persons-merged/4", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	found := f.scheduled(t, signal.PersonsMerged, p)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"neville@magic.uk"}, found[0].ToHeader)

	w, _ = f.do(t, http.MethodPost, "/api/emails/actions/instructor-signs-up/11", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	w, _ = f.do(t, http.MethodPost, "/api/emails/actions/admin-signs-instructor-up/11", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, f.scheduled(t, signal.InstructorSignsUpForWorkshop, s), 1)
	assert.Len(t, f.scheduled(t, signal.AdminSignsInstructorUpForWorkshop, s), 1)

	w, _ = f.do(t, http.MethodPost, "/api/emails/actions/persons-merged/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
