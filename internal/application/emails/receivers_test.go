package emails_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func connected(f *fixture, name signal.Name) *emails.Trio[*entity.Person] {
	trio := emails.NewTrio[*entity.Person](name)
	emails.Connect(f.engine, trio, personAction(name))
	return trio
}

func TestCreateReceiver_SchedulesAndReports(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	req := emails.NewRequest(person(99, "admin@carpentries.org"), nil)
	ctx := context.Background()

	require.NoError(t, trio.Create.Send(ctx, req, person(1, "harry@magic.uk")))

	found, err := f.emails.FindByRelation(ctx, string(signal.PersonsMerged), entity.Relation{Kind: entity.RelationPerson, ID: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)

	msgs := req.Messages.All()
	require.Len(t, msgs, 1)
	assert.Equal(t, emails.LevelInfo, msgs[0].Level)
	assert.Equal(t, "New email action was scheduled to run at 2024-05-10T13:34:56+00:00: Template persons_merged "+
		"(https://amy.example.org/api/emails/scheduled/"+found[0].ID.String()+")", msgs[0].Text)

	logs, _ := f.emails.Logs(ctx, found[0].ID)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(99), *logs[0].AuthorID)
}

func TestCreateReceiver_MissingRecipients(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	req := emails.NewRequest(nil, nil)

	require.NoError(t, trio.Create.Send(context.Background(), req, person(1, "")))

	msgs := req.Messages.All()
	require.Len(t, msgs, 1)
	assert.Equal(t, emails.LevelWarning, msgs[0].Level)
	assert.Equal(t, "Email action was not scheduled due to missing recipients for signal persons_merged. "+
		"Please check if the persons involved have email addresses set.", msgs[0].Text)
}

func TestCreateReceiver_MissingTemplate(t *testing.T) {
	f := newFixture(t)
	trio := connected(f, signal.PersonsMerged)
	req := emails.NewRequest(nil, nil)

	require.NoError(t, trio.Create.Send(context.Background(), req, person(1, "a@magic.uk")))
	assert.Equal(t, "Email action was not scheduled due to missing template for signal persons_merged.", req.Messages.All()[0].Text)
}

func TestReceivers_FlagGuard(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	ctx := context.Background()
	f.flags[emails.FlagEmailModule] = false

	require.NoError(t, trio.Create.Send(ctx, emails.NewRequest(nil, nil), person(1, "a@magic.uk")))
	require.NoError(t, trio.Update.Send(ctx, emails.NewRequest(nil, nil), person(1, "a@magic.uk")))
	require.NoError(t, trio.Cancel.Send(ctx, nil, person(1, "a@magic.uk")))

	var debug []string
	for _, e := range f.hook.AllEntries() {
		debug = append(debug, e.Message)
	}
	assert.Contains(t, debug, "EMAIL_MODULE feature flag not set, skipping persons_merged")
	assert.Contains(t, debug, "EMAIL_MODULE feature flag not set, skipping persons_merged_update")
	assert.Contains(t, debug, "Cannot check EMAIL_MODULE feature flag, request parameter to persons_merged_remove is missing")

	exists, err := f.engine.EmailExists(ctx, signal.PersonsMerged, entity.Relation{Kind: entity.RelationPerson, ID: 1})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateReceiver(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	ctx := context.Background()
	p := person(1, "a@magic.uk")

	require.NoError(t, trio.Update.Send(ctx, emails.NewRequest(nil, nil), p))
	assert.Contains(t, f.warnings(), "Scheduled email for signal persons_merged and person#1 does not exist.")

	require.NoError(t, trio.Create.Send(ctx, emails.NewRequest(nil, nil), p))
	p.Email = "new@magic.uk"
	req := emails.NewRequest(nil, nil)
	require.NoError(t, trio.Update.Send(ctx, req, p))

	found, _ := f.emails.FindByRelation(ctx, string(signal.PersonsMerged), entity.RelationOf(p))
	require.Len(t, found, 1)
	assert.Equal(t, []string{"new@magic.uk"}, found[0].ToHeader)
	assert.Equal(t, "Existing email action (Template persons_merged) was updated: https://amy.example.org/api/emails/scheduled/"+
		found[0].ID.String(), req.Messages.All()[0].Text)
}

func TestUpdateReceiver_TooMany(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	ctx := context.Background()
	p := person(1, "a@magic.uk")

	require.NoError(t, trio.Create.Send(ctx, emails.NewRequest(nil, nil), p))
	require.NoError(t, trio.Create.Send(ctx, emails.NewRequest(nil, nil), p))
	require.NoError(t, trio.Update.Send(ctx, emails.NewRequest(nil, nil), p))

	assert.Contains(t, f.warnings(), "Too many scheduled emails for signal persons_merged and person#1. Can't update them.")
}

func TestCancelReceiver_CancelsAllScheduled(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	ctx := context.Background()
	p := person(1, "a@magic.uk")

	require.NoError(t, trio.Create.Send(ctx, emails.NewRequest(nil, nil), p))
	require.NoError(t, trio.Create.Send(ctx, emails.NewRequest(nil, nil), p))
	req := emails.NewRequest(nil, nil)
	require.NoError(t, trio.Cancel.Send(ctx, req, p))

	found, _ := f.emails.FindByRelation(ctx, string(signal.PersonsMerged), entity.RelationOf(p))
	require.Len(t, found, 2)
	for _, e := range found {
		assert.Equal(t, entity.StateCancelled, e.State)
	}
	msgs := req.Messages.All()
	require.Len(t, msgs, 2)
	assert.Equal(t, emails.LevelWarning, msgs[0].Level)

	exists, err := f.engine.EmailExists(ctx, signal.PersonsMerged, entity.RelationOf(p))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReceivers_DryRunAndSuppressedMessages(t *testing.T) {
	f := newFixture(t, signal.PersonsMerged)
	trio := connected(f, signal.PersonsMerged)
	ctx := context.Background()
	p := person(1, "a@magic.uk")

	dry := emails.NewRequest(nil, nil)
	dry.DryRun = true
	require.NoError(t, trio.Create.Send(ctx, dry, p))
	exists, _ := f.engine.EmailExists(ctx, signal.PersonsMerged, entity.RelationOf(p))
	assert.False(t, exists)

	quiet := emails.NewRequest(nil, nil)
	quiet.SuppressMessages = true
	require.NoError(t, trio.Create.Send(ctx, quiet, p))
	assert.Empty(t, quiet.Messages.All())
	exists, _ = f.engine.EmailExists(ctx, signal.PersonsMerged, entity.RelationOf(p))
	assert.True(t, exists)
}
