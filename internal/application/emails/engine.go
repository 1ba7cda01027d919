package emails

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// FlagEmailModule gates every scheduled-email receiver.
const FlagEmailModule = "EMAIL_MODULE"

// FlagChecker answers whether a named feature flag is on.
type FlagChecker interface {
	Enabled(ctx context.Context, name string) bool
}

// Scheduler is the part of Controller the receivers depend on.
type Scheduler interface {
	ScheduleEmail(ctx context.Context, p ScheduleParams) (*entity.ScheduledEmail, error)
	UpdateScheduledEmail(ctx context.Context, p UpdateParams) (*entity.ScheduledEmail, error)
	CancelEmail(ctx context.Context, email *entity.ScheduledEmail, authorID *int64) (*entity.ScheduledEmail, error)
}

// Engine is shared by strategies and receivers: it answers existence
// questions and owns the collaborators receivers call.
type Engine struct {
	Emails     repository.ScheduledEmailRepository
	Controller Scheduler
	Flags      FlagChecker
	Logger     *logrus.Logger
	Clock      Clock
	BaseURL    string
}

func NewEngine(emails repository.ScheduledEmailRepository, controller Scheduler, flags FlagChecker, logger *logrus.Logger) *Engine {
	return &Engine{Emails: emails, Controller: controller, Flags: flags, Logger: logger}
}

func (e *Engine) Log() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

func (e *Engine) Now() time.Time { return e.Clock.Now() }

// EmailExists reports a SCHEDULED email for the signal and relation.
func (e *Engine) EmailExists(ctx context.Context, name signal.Name, rel entity.Relation) (bool, error) {
	return e.Emails.ExistsForRelation(ctx, string(name), rel, entity.StateScheduled)
}

// EmailDelivered reports whether an email for name and rel has already left
// the schedule: LOCKED, RUNNING or SUCCEEDED.
func (e *Engine) EmailDelivered(ctx context.Context, name signal.Name, rel entity.Relation) (bool, error) {
	return e.Emails.ExistsForRelation(ctx, string(name), rel, entity.StateLocked, entity.StateRunning, entity.StateSucceeded)
}

// Link is the admin URL of a scheduled email, used in user messages.
func (e *Engine) Link(id uuid.UUID) string {
	return strings.TrimRight(e.BaseURL, "/") + "/api/emails/scheduled/" + id.String()
}

// flagEnabled is the guard every receiver runs first. name is the signal
// name with the variant suffix the receiver reports.
func (e *Engine) flagEnabled(ctx context.Context, req *Request, name string) bool {
	if req == nil {
		e.Log().Debugf("Cannot check %s feature flag, request parameter to %s is missing", FlagEmailModule, name)
		return false
	}
	if e.Flags == nil || !e.Flags.Enabled(ctx, FlagEmailModule) {
		e.Log().Debugf("%s feature flag not set, skipping %s", FlagEmailModule, name)
		return false
	}
	return true
}
