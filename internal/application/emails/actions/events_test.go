package actions_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/application/emails/actions"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func TestRecruitHelpersRecipients(t *testing.T) {
	hp := newPerson(1, "hp@magic.uk")
	rw := newPerson(2, "rw@magic.uk")
	e := workshop(1,
		task(entity.RoleInstructor, hp),
		task(entity.RoleInstructor, rw),
		task(entity.RoleInstructor, hp),
		task(entity.RoleHost, newPerson(3, "host@magic.uk")),
	)
	assert.Equal(t, "hp@magic.uk, rw@magic.uk", actions.RecruitHelpersRecipients(e))
}

func TestRecruitHelpers_CreateThenCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := newPerson(1, "host@magic.uk")
	instructor := newPerson(2, "instructor@magic.uk")
	e := workshop(1, task(entity.RoleHost, host), task(entity.RoleInstructor, instructor))

	result, err := f.actions.RunRecruitHelpers(ctx, req(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyCreate, result)

	found := f.scheduled(t, signal.RecruitHelpers, e)
	require.Len(t, found, 1)
	assert.Equal(t, time.Date(2024, 5, 30, 12, 34, 56, 0, time.UTC), found[0].ScheduledAt)
	assert.Equal(t, []string{"instructor@magic.uk", "host@magic.uk"}, found[0].ToHeader)
	assert.Equal(t, "instructor@magic.uk;", found[0].Body)

	e.Tasks = append(e.Tasks, task(entity.RoleHelper, newPerson(3, gofakeit.Email())))
	result, err = f.actions.RunRecruitHelpers(ctx, req(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyCancel, result)
	assert.Empty(t, f.scheduled(t, signal.RecruitHelpers, e))
}

func TestRecruitHelpers_TooManyScheduledEmails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := workshop(1, task(entity.RoleHost, newPerson(1, "h@magic.uk")), task(entity.RoleInstructor, newPerson(2, "i@magic.uk")))

	require.NoError(t, f.actions.RecruitHelpers.Create.Send(ctx, req(), e))
	require.NoError(t, f.actions.RecruitHelpers.Create.Send(ctx, req(), e))

	result, err := f.actions.RunRecruitHelpers(ctx, req(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyUpdate, result)
	assert.Contains(t, f.warnings(), "Too many scheduled emails for signal recruit_helpers and event#1. Can't update them.")
}

func TestEventStrategies_UnsavedEventIsNoop(t *testing.T) {
	f := newFixture(t)
	e := workshop(0, task(entity.RoleHost, newPerson(1, "h@magic.uk")), task(entity.RoleInstructor, newPerson(2, "i@magic.uk")))

	result, err := f.actions.RecruitHelpersStrategy(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyNoop, result)
}

func TestHostInstructorsIntroduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := newPerson(1, "host@magic.uk")
	e := workshop(1,
		task(entity.RoleInstructor, newPerson(2, "i1@magic.uk")),
		task(entity.RoleHost, host),
		task(entity.RoleInstructor, newPerson(3, "i2@magic.uk")),
	)

	result, err := f.actions.RunHostInstructorsIntroduction(ctx, req(), e)
	require.NoError(t, err)
	require.Equal(t, emails.StrategyCreate, result)
	found := f.scheduled(t, signal.HostInstructorsIntroduction, e)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"host@magic.uk", "i1@magic.uk", "i2@magic.uk"}, found[0].ToHeader)
	assert.Equal(t, fixedNow.Add(time.Hour), found[0].ScheduledAt)

	e.Recruitment = &entity.InstructorRecruitment{ID: 1, Status: entity.RecruitmentOpen}
	result, err = f.actions.HostInstructorsIntroductionStrategy(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyCancel, result)
}

func TestPostWorkshop7Days_ScheduledAfterEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := workshop(1, task(entity.RoleHost, newPerson(1, "h@magic.uk")), task(entity.RoleInstructor, newPerson(2, "i@magic.uk")))
	e.Start = date(2024, 5, 11)
	e.End = date(2024, 5, 12)

	result, err := f.actions.RunPostWorkshop7Days(ctx, req(), e)
	require.NoError(t, err)
	require.Equal(t, emails.StrategyCreate, result)

	found := f.scheduled(t, signal.PostWorkshop7Days, e)
	require.Len(t, found, 1)
	assert.Equal(t, time.Date(2024, 5, 19, 12, 34, 56, 0, time.UTC), found[0].ScheduledAt)
	assert.Equal(t, []string{"h@magic.uk", "i@magic.uk"}, found[0].ToHeader)
}

func TestPostWorkshop7Days_CommunityLessonExcluded(t *testing.T) {
	f := newFixture(t)
	e := workshop(1, task(entity.RoleHost, newPerson(1, "h@magic.uk")), task(entity.RoleInstructor, newPerson(2, "i@magic.uk")))
	e.Administrator = &entity.Organization{ID: 5, Domain: entity.DomainCommunityLessons}

	result, err := f.actions.PostWorkshop7DaysStrategy(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyNoop, result)
}

func TestInstructorTrainingApproaching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := workshop(1, task(entity.RoleInstructor, newPerson(1, "a@magic.uk")), task(entity.RoleInstructor, newPerson(2, "b@magic.uk")))
	e.Tags = []entity.Tag{{ID: 9, Name: entity.TagTTT}}

	result, err := f.actions.RunInstructorTrainingApproaching(ctx, req(), e)
	require.NoError(t, err)
	require.Equal(t, emails.StrategyCreate, result)
	found := f.scheduled(t, signal.InstructorTrainingApproaching, e)
	require.Len(t, found, 1)
	assert.Equal(t, time.Date(2024, 5, 21, 12, 34, 56, 0, time.UTC), found[0].ScheduledAt)

	e.Tasks = e.Tasks[:1]
	result, err = f.actions.RunInstructorTrainingApproaching(ctx, req(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyCancel, result)
}

func TestAskForWebsite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := workshop(1, task(entity.RoleInstructor, newPerson(1, "a@magic.uk")))

	result, err := f.actions.AskForWebsiteStrategy(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyCreate, result)

	e.URL = "https://carpentries.github.io/workshop"
	result, err = f.actions.AskForWebsiteStrategy(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyNoop, result)
}

func TestNewSelfOrganisedWorkshop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := workshop(1)
	e.Administrator = selfOrganisedAdmin
	e.Start = date(2024, 5, 15)
	submission := &entity.SelfOrganisedSubmission{
		ID:                7,
		EventID:           1,
		Email:             "organiser@magic.uk",
		AdditionalContact: "one@magic.uk; ;two@magic.uk",
	}
	e.Submission = submission

	results, err := f.actions.TriggerEvent(ctx, req(), e)
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyCreate, results[signal.NewSelfOrganisedWorkshop])

	found := f.scheduled(t, signal.NewSelfOrganisedWorkshop, e)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"organiser@magic.uk", "one@magic.uk", "two@magic.uk"}, found[0].ToHeader)
	assert.JSONEq(t, `{
		"assignee": "value:none#",
		"workshop_host": "api:organization#200",
		"event": "api:event#1",
		"short_notice": "value:bool#true",
		"self_organised_submission": "api:selforganisedsubmission#7"
	}`, string(found[0].ContextJSON))
}

func TestTriggerEvent_RunsEveryEventStrategy(t *testing.T) {
	f := newFixture(t)
	e := workshop(1,
		task(entity.RoleHost, newPerson(1, "h@magic.uk")),
		task(entity.RoleInstructor, newPerson(2, "a@magic.uk")),
		task(entity.RoleInstructor, newPerson(3, "b@magic.uk")),
	)

	results, err := f.actions.TriggerEvent(context.Background(), req(), e)
	require.NoError(t, err)
	assert.Equal(t, actions.Results{
		signal.InstructorTrainingApproaching: emails.StrategyNoop,
		signal.HostInstructorsIntroduction:   emails.StrategyCreate,
		signal.RecruitHelpers:                emails.StrategyCreate,
		signal.PostWorkshop7Days:             emails.StrategyCreate,
		signal.AskForWebsite:                 emails.StrategyCreate,
	}, results)
}

func TestBackfill_OnlyCreates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := workshop(1, task(entity.RoleHost, newPerson(1, "h@magic.uk")), task(entity.RoleInstructor, newPerson(2, "i@magic.uk")))
	f.repo.AddEvent(e)
	past := workshop(2)
	past.Start = date(2023, 1, 1)
	f.repo.AddEvent(past)

	first, err := f.actions.Backfill(ctx, req(), entity.TagSWC, emails.Today(fixedNow))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, emails.StrategyCreate, first[1][signal.RecruitHelpers])
	require.Len(t, f.scheduled(t, signal.RecruitHelpers, e), 1)

	second, err := f.actions.Backfill(ctx, req(), entity.TagSWC, emails.Today(fixedNow))
	require.NoError(t, err)
	assert.Equal(t, emails.StrategyUpdate, second[1][signal.RecruitHelpers])
	assert.Len(t, f.scheduled(t, signal.RecruitHelpers, e), 1)
	logs, _ := f.emails.Logs(ctx, f.scheduled(t, signal.RecruitHelpers, e)[0].ID)
	assert.Len(t, logs, 1)
}
