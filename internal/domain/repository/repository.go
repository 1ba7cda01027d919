package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

var ErrNotFound = errors.New("not found")

// ListParams pages through scheduled emails, newest first.
type ListParams struct {
	States []entity.ScheduledEmailState
	Signal string
	Limit  int
	Offset int
}

// DueParams selects emails in States whose scheduled_at is not after Now.
// FAILED emails with more than MaxFailures failure log entries are left out.
type DueParams struct {
	Now         time.Time
	States      []entity.ScheduledEmailState
	MaxFailures uint64
	Limit       int
}

type ScheduledEmailRepository interface {
	Create(ctx context.Context, e *entity.ScheduledEmail) error
	Update(ctx context.Context, e *entity.ScheduledEmail) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduledEmail, error)
	// FindByRelation returns emails for the template signal and relation,
	// restricted to states when any are given. Oldest first.
	FindByRelation(ctx context.Context, signal string, rel entity.Relation, states ...entity.ScheduledEmailState) ([]*entity.ScheduledEmail, error)
	ExistsForRelation(ctx context.Context, signal string, rel entity.Relation, states ...entity.ScheduledEmailState) (bool, error)
	List(ctx context.Context, p ListParams) ([]*entity.ScheduledEmail, int, error)
	// Due returns emails ready to send, earliest scheduled_at first.
	Due(ctx context.Context, p DueParams) ([]*entity.ScheduledEmail, error)

	AddLog(ctx context.Context, l *entity.ScheduledEmailLog) error
	Logs(ctx context.Context, emailID uuid.UUID) ([]*entity.ScheduledEmailLog, error)
	AddAttachment(ctx context.Context, a *entity.Attachment) error
	Attachments(ctx context.Context, emailID uuid.UUID) ([]*entity.Attachment, error)
}

type EmailTemplateRepository interface {
	Create(ctx context.Context, t *entity.EmailTemplate) error
	Update(ctx context.Context, t *entity.EmailTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error)
	GetActiveBySignal(ctx context.Context, signal string) (*entity.EmailTemplate, error)
	List(ctx context.Context) ([]*entity.EmailTemplate, error)
}

// DomainRepository reads the workshop and membership aggregates the email
// strategies inspect. Aggregates come back fully loaded: events with tags,
// tasks and persons; memberships with tasks, events and trainee tasks.
type DomainRepository interface {
	GetPerson(ctx context.Context, id int64) (*entity.Person, error)
	GetPersonByEmail(ctx context.Context, email string) (*entity.Person, error)
	GetOrganization(ctx context.Context, id int64) (*entity.Organization, error)
	GetEvent(ctx context.Context, id int64) (*entity.Event, error)
	GetTask(ctx context.Context, id int64) (*entity.Task, error)
	GetAward(ctx context.Context, id int64) (*entity.Award, error)
	GetMembership(ctx context.Context, id int64) (*entity.Membership, error)
	GetSignup(ctx context.Context, id int64) (*entity.InstructorRecruitmentSignup, error)
	GetSubmission(ctx context.Context, id int64) (*entity.SelfOrganisedSubmission, error)
	GetTrainingProgress(ctx context.Context, id int64) (*entity.TrainingProgress, error)
	TrainingProgress(ctx context.Context, personID int64) ([]*entity.TrainingProgress, error)
	// UpcomingEventIDs lists events starting on or after from that carry
	// withTag and none of withoutTags.
	UpcomingEventIDs(ctx context.Context, from time.Time, withTag string, withoutTags []string) ([]int64, error)
}
