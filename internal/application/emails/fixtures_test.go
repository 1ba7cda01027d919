package emails_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
	"github.com/oksasatya/amy-emails/internal/infrastructure/memory"
)

var fixedNow = time.Date(2024, 5, 10, 12, 34, 56, 0, time.UTC)

type flags map[string]bool

func (f flags) Enabled(_ context.Context, name string) bool { return f[name] }

type fixture struct {
	templates  *memory.EmailTemplateRepository
	emails     *memory.ScheduledEmailRepository
	controller *emails.Controller
	engine     *emails.Engine
	hook       *logtest.Hook
	flags      flags
}

func newFixture(t *testing.T, signals ...signal.Name) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	templates := memory.NewEmailTemplateRepository()
	for _, s := range signals {
		_ = templates.Create(context.Background(), &entity.EmailTemplate{
			Name:       "Template " + string(s),
			Signal:     string(s),
			FromHeader: "team@carpentries.org",
			Subject:    "Hello {{ .person.Personal }}",
			Body:       "Dear {{ .person.FullName }},\n\nsee you soon.",
			Active:     true,
		})
	}
	store := memory.NewScheduledEmailRepository(templates)

	clock := emails.Clock(func() time.Time { return fixedNow })
	controller := emails.NewController(store, templates, emails.NewRenderer(), logger)
	controller.Clock = clock

	f := flags{emails.FlagEmailModule: true}
	engine := emails.NewEngine(store, controller, f, logger)
	engine.Clock = clock
	engine.BaseURL = "https://amy.example.org"

	return &fixture{templates: templates, emails: store, controller: controller, engine: engine, hook: hook, flags: f}
}

func (f *fixture) warnings() []string {
	var out []string
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func person(id int64, email string) *entity.Person {
	return &entity.Person{ID: id, Personal: "Harry", Family: "Potter", Email: email}
}

// personAction schedules one email per person, immediately.
func personAction(name signal.Name) *emails.Action[*entity.Person] {
	return &emails.Action[*entity.Person]{
		Signal: name,
		Context: func(_ context.Context, p *entity.Person) (emails.Context, error) {
			return emails.Context{"person": p}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{"person": emails.ModelURL(c["person"].(*entity.Person))}
		},
		Relation: func(_ emails.Context, p *entity.Person) entity.Relation {
			return entity.RelationOf(p)
		},
		ScheduledAt: func(_ *entity.Person, now time.Time) time.Time {
			return emails.ImmediateAction(now)
		},
		Recipients: func(c emails.Context, p *entity.Person) []string {
			return entity.Emails([]*entity.Person{p})
		},
		RecipientsJSON: func(c emails.Context, p *entity.Person) emails.ToHeaderModel {
			return emails.ToHeaderModel{emails.PersonEmail(p)}
		},
	}
}
