package actions_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/application/emails/actions"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
	"github.com/oksasatya/amy-emails/internal/infrastructure/memory"
)

var fixedNow = time.Date(2024, 5, 10, 12, 34, 56, 0, time.UTC)

type alwaysOn struct{}

func (alwaysOn) Enabled(context.Context, string) bool { return true }

type memoryStorage struct {
	objects map[string]string
}

func (s *memoryStorage) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[objectPath] = string(b)
	return "mem://" + objectPath, nil
}

type fixture struct {
	actions *actions.Actions
	repo    *memory.DomainRepository
	emails  *memory.ScheduledEmailRepository
	storage *memoryStorage
	hook    *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	templates := memory.NewEmailTemplateRepository()
	for _, s := range signal.All {
		body := "Automated email"
		if s == signal.RecruitHelpers {
			body = "{{ range .instructors }}{{ .Email }};{{ end }}"
		}
		require.NoError(t, templates.Create(context.Background(), &entity.EmailTemplate{
			Name:       "Template " + string(s),
			Signal:     string(s),
			FromHeader: "team@carpentries.org",
			Subject:    "Subject for " + string(s),
			Body:       body,
			Active:     true,
		}))
	}
	store := memory.NewScheduledEmailRepository(templates)
	clock := emails.Clock(func() time.Time { return fixedNow })

	storage := &memoryStorage{objects: map[string]string{}}
	controller := emails.NewController(store, templates, emails.NewRenderer(), logger)
	controller.Clock = clock
	controller.Storage = storage

	engine := emails.NewEngine(store, controller, alwaysOn{}, logger)
	engine.Clock = clock

	repo := memory.NewDomainRepository()
	return &fixture{
		actions: actions.New(engine, repo, controller),
		repo:    repo,
		emails:  store,
		storage: storage,
		hook:    hook,
	}
}

func (f *fixture) scheduled(t *testing.T, name signal.Name, m entity.Model) []*entity.ScheduledEmail {
	t.Helper()
	found, err := f.emails.FindByRelation(context.Background(), string(name), entity.RelationOf(m), entity.StateScheduled)
	require.NoError(t, err)
	return found
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

func req() *emails.Request { return emails.NewRequest(nil, nil) }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newPerson(id int64, email string) *entity.Person {
	return &entity.Person{ID: id, Personal: "Person", Family: string(rune('A' + id%26)), Email: email}
}

var centralAdmin = &entity.Organization{ID: 100, Domain: "carpentries.org", FullName: "The Carpentries"}
var selfOrganisedAdmin = &entity.Organization{ID: 101, Domain: entity.DomainSelfOrganised, FullName: "Self Organised"}

var nextTaskID int64 = 1000

func task(role string, p *entity.Person) *entity.Task {
	nextTaskID++
	return &entity.Task{ID: nextTaskID, PersonID: p.ID, Person: p, Role: role}
}

// workshop is a centrally organised SWC event starting 2024-06-20.
func workshop(id int64, tasks ...*entity.Task) *entity.Event {
	e := &entity.Event{
		ID:            id,
		Slug:          "2024-06-20-workshop",
		Start:         date(2024, 6, 20),
		End:           date(2024, 6, 21),
		Administrator: centralAdmin,
		Host:          &entity.Organization{ID: 200, Domain: "magic.uk", FullName: "Hogwarts"},
		Tags:          []entity.Tag{{ID: 1, Name: entity.TagSWC}},
	}
	for _, t := range tasks {
		t.EventID = id
		e.Tasks = append(e.Tasks, t)
	}
	return e
}
