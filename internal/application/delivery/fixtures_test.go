package delivery_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/infrastructure/memory"
	"github.com/oksasatya/amy-emails/pkg/mailer"
)

var fixedNow = time.Date(2024, 5, 10, 12, 34, 56, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, m mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

type memoryObjects map[string][]byte

func (o memoryObjects) Open(_ context.Context, objectPath string) (io.ReadCloser, error) {
	b, ok := o[objectPath]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fixture struct {
	emails     *memory.ScheduledEmailRepository
	templates  *memory.EmailTemplateRepository
	domain     *memory.DomainRepository
	controller *emails.Controller
	redis      *redis.Client
	logger     *logrus.Logger
	hook       *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger, hook := logtest.NewNullLogger()
	templates := memory.NewEmailTemplateRepository()
	store := memory.NewScheduledEmailRepository(templates)
	controller := emails.NewController(store, templates, emails.NewRenderer(), logger)
	controller.Clock = func() time.Time { return fixedNow }

	domain := memory.NewDomainRepository()
	domain.AddPerson(&entity.Person{ID: 1, Personal: "Harry", Family: "Potter", Email: "harry@magic.uk"})

	return &fixture{emails: store, templates: templates, domain: domain, controller: controller, redis: rdb, logger: logger, hook: hook}
}

// email stores an email for person 1 in state, due an hour ago.
func (f *fixture) email(t *testing.T, state entity.ScheduledEmailState) *entity.ScheduledEmail {
	t.Helper()
	e := &entity.ScheduledEmail{
		State:               state,
		ScheduledAt:         fixedNow.Add(-time.Hour),
		ToHeader:            []string{"old@magic.uk"},
		ToHeaderContextJSON: []byte(`[{"api_uri": "api:person#1", "property": "email"}]`),
		FromHeader:          "team@carpentries.org",
		ReplyToHeader:       "reply@carpentries.org",
		CCHeader:            []string{"cc@carpentries.org"},
		Subject:             "Hello Harry",
		Body:                "Dear Harry",
		Relation:            entity.Relation{Kind: entity.RelationPerson, ID: 1},
		ContextJSON:         []byte(`{"person": "api:person#1"}`),
		CreatedAt:           fixedNow.Add(-24 * time.Hour),
	}
	require.NoError(t, f.emails.Create(context.Background(), e))
	return e
}

func (f *fixture) state(t *testing.T, e *entity.ScheduledEmail) entity.ScheduledEmailState {
	t.Helper()
	got, err := f.emails.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	return got.State
}

func (f *fixture) lastLog(t *testing.T, e *entity.ScheduledEmail) *entity.ScheduledEmailLog {
	t.Helper()
	logs, err := f.emails.Logs(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	return logs[len(logs)-1]
}
