package emails

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

// TemplateSource looks templates up by signal or id.
type TemplateSource interface {
	GetActiveBySignal(ctx context.Context, signal string) (*entity.EmailTemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error)
}

// AttachmentStorage stores attachment bytes and returns a public URL.
type AttachmentStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Indexer mirrors scheduled emails into a search index.
type Indexer interface {
	Index(ctx context.Context, e *entity.ScheduledEmail) error
}

type ScheduleParams struct {
	Signal              string
	Context             Context
	ContextJSON         ContextModel
	ScheduledAt         time.Time
	ToHeader            []string
	ToHeaderContextJSON ToHeaderModel
	Relation            entity.Relation
	AuthorID            *int64
}

type UpdateParams struct {
	Email               *entity.ScheduledEmail
	Context             Context
	ContextJSON         ContextModel
	ScheduledAt         time.Time
	ToHeader            []string
	ToHeaderContextJSON ToHeaderModel
	Relation            entity.Relation
	AuthorID            *int64
}

// EditParams are the administrator-editable fields of a scheduled email.
type EditParams struct {
	ToHeader      []string
	FromHeader    string
	ReplyToHeader string
	CCHeader      []string
	BCCHeader     []string
	Subject       string
	Body          string
}

// transitions lists the states each state may move to.
var transitions = map[entity.ScheduledEmailState][]entity.ScheduledEmailState{
	entity.StateScheduled: {entity.StateLocked, entity.StateRunning, entity.StateSucceeded, entity.StateFailed, entity.StateCancelled},
	entity.StateLocked:    {entity.StateScheduled, entity.StateRunning, entity.StateSucceeded, entity.StateFailed, entity.StateCancelled},
	entity.StateRunning:   {entity.StateSucceeded, entity.StateFailed},
	entity.StateFailed:    {entity.StateScheduled, entity.StateLocked, entity.StateRunning, entity.StateSucceeded, entity.StateCancelled},
	entity.StateCancelled: {entity.StateScheduled},
	entity.StateSucceeded: {},
}

func CanTransition(from, to entity.ScheduledEmailState) bool {
	return slices.Contains(transitions[from], to)
}

// Controller persists scheduled emails and records a log entry for every
// change.
type Controller struct {
	Emails    repository.ScheduledEmailRepository
	Templates TemplateSource
	Renderer  *Renderer
	Storage   AttachmentStorage
	Indexer   Indexer
	Logger    *logrus.Logger
	Clock     Clock
}

func NewController(emails repository.ScheduledEmailRepository, templates TemplateSource, renderer *Renderer, logger *logrus.Logger) *Controller {
	return &Controller{Emails: emails, Templates: templates, Renderer: renderer, Logger: logger}
}

func (c *Controller) log() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c *Controller) activeTemplate(ctx context.Context, signal string) (*entity.EmailTemplate, error) {
	tpl, err := c.Templates.GetActiveBySignal(ctx, signal)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: signal %s", ErrTemplateNotFound, signal)
	}
	return tpl, err
}

// ScheduleEmail renders the active template for p.Signal and stores a new
// SCHEDULED email.
func (c *Controller) ScheduleEmail(ctx context.Context, p ScheduleParams) (*entity.ScheduledEmail, error) {
	if len(p.ToHeader) == 0 {
		return nil, ErrMissingRecipients
	}
	tpl, err := c.activeTemplate(ctx, p.Signal)
	if err != nil {
		return nil, err
	}
	subject, body, err := c.Renderer.Render(tpl, p.Context)
	if err != nil {
		return nil, err
	}
	contextJSON, err := p.ContextJSON.Raw()
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	toJSON, err := p.ToHeaderContextJSON.Raw()
	if err != nil {
		return nil, fmt.Errorf("encode recipients context: %w", err)
	}

	now := c.Clock.Now()
	email := &entity.ScheduledEmail{
		ID:                  uuid.New(),
		State:               entity.StateScheduled,
		ScheduledAt:         p.ScheduledAt,
		ToHeader:            p.ToHeader,
		ToHeaderContextJSON: toJSON,
		FromHeader:          tpl.FromHeader,
		ReplyToHeader:       tpl.ReplyToHeader,
		CCHeader:            tpl.CCHeader,
		BCCHeader:           tpl.BCCHeader,
		Subject:             subject,
		Body:                body,
		TemplateID:          &tpl.ID,
		Template:            tpl,
		Relation:            p.Relation,
		ContextJSON:         contextJSON,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := c.Emails.Create(ctx, email); err != nil {
		return nil, err
	}
	details := fmt.Sprintf("Scheduled %s to run at %s", p.Signal, ISOFormat(p.ScheduledAt))
	if err := c.addLog(ctx, email, nil, details, p.AuthorID); err != nil {
		return nil, err
	}
	c.index(ctx, email)
	return email, nil
}

// UpdateScheduledEmail re-renders the linked template with a fresh context
// and moves the email to the new time and recipients.
func (c *Controller) UpdateScheduledEmail(ctx context.Context, p UpdateParams) (*entity.ScheduledEmail, error) {
	if len(p.ToHeader) == 0 {
		return nil, ErrMissingRecipients
	}
	email := p.Email
	if email.TemplateID == nil {
		return nil, ErrTemplateNotFound
	}
	tpl, err := c.Templates.GetByID(ctx, *email.TemplateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %s", ErrTemplateNotFound, email.TemplateID)
	}
	if err != nil {
		return nil, err
	}
	subject, body, err := c.Renderer.Render(tpl, p.Context)
	if err != nil {
		return nil, err
	}
	contextJSON, err := p.ContextJSON.Raw()
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	toJSON, err := p.ToHeaderContextJSON.Raw()
	if err != nil {
		return nil, fmt.Errorf("encode recipients context: %w", err)
	}

	before := email.State
	email.ScheduledAt = p.ScheduledAt
	email.ToHeader = p.ToHeader
	email.ToHeaderContextJSON = toJSON
	email.FromHeader = tpl.FromHeader
	email.ReplyToHeader = tpl.ReplyToHeader
	email.CCHeader = tpl.CCHeader
	email.BCCHeader = tpl.BCCHeader
	email.Subject = subject
	email.Body = body
	email.Template = tpl
	email.ContextJSON = contextJSON
	if !p.Relation.IsZero() {
		email.Relation = p.Relation
	}
	email.UpdatedAt = c.Clock.Now()
	if err := c.Emails.Update(ctx, email); err != nil {
		return nil, err
	}
	details := fmt.Sprintf("Updated %s to run at %s", tpl.Signal, ISOFormat(p.ScheduledAt))
	if err := c.addLog(ctx, email, &before, details, p.AuthorID); err != nil {
		return nil, err
	}
	c.index(ctx, email)
	return email, nil
}

// RescheduleEmail moves an email to a new time. Cancelled emails return to
// SCHEDULED.
func (c *Controller) RescheduleEmail(ctx context.Context, email *entity.ScheduledEmail, at time.Time, authorID *int64) (*entity.ScheduledEmail, error) {
	if !slices.Contains(entity.ReschedulableStates, email.State) {
		return nil, fmt.Errorf("%w: cannot reschedule %s email", ErrInvalidTransition, email.State)
	}
	before := email.State
	email.ScheduledAt = at
	if email.State == entity.StateCancelled {
		email.State = entity.StateScheduled
	}
	email.UpdatedAt = c.Clock.Now()
	if err := c.Emails.Update(ctx, email); err != nil {
		return nil, err
	}
	details := fmt.Sprintf("Rescheduled email to run at %s", ISOFormat(at))
	if err := c.addLog(ctx, email, &before, details, authorID); err != nil {
		return nil, err
	}
	c.index(ctx, email)
	return email, nil
}

func (c *Controller) CancelEmail(ctx context.Context, email *entity.ScheduledEmail, authorID *int64) (*entity.ScheduledEmail, error) {
	return c.ChangeState(ctx, email, entity.StateCancelled, "Email was cancelled", authorID)
}

func (c *Controller) LockEmail(ctx context.Context, email *entity.ScheduledEmail, details string, authorID *int64) (*entity.ScheduledEmail, error) {
	return c.ChangeState(ctx, email, entity.StateLocked, details, authorID)
}

func (c *Controller) RunEmail(ctx context.Context, email *entity.ScheduledEmail, details string, authorID *int64) (*entity.ScheduledEmail, error) {
	return c.ChangeState(ctx, email, entity.StateRunning, details, authorID)
}

func (c *Controller) SucceedEmail(ctx context.Context, email *entity.ScheduledEmail, details string, authorID *int64) (*entity.ScheduledEmail, error) {
	return c.ChangeState(ctx, email, entity.StateSucceeded, details, authorID)
}

func (c *Controller) FailEmail(ctx context.Context, email *entity.ScheduledEmail, details string, authorID *int64) (*entity.ScheduledEmail, error) {
	return c.ChangeState(ctx, email, entity.StateFailed, details, authorID)
}

// ChangeState moves email to state and logs details.
func (c *Controller) ChangeState(ctx context.Context, email *entity.ScheduledEmail, state entity.ScheduledEmailState, details string, authorID *int64) (*entity.ScheduledEmail, error) {
	if !CanTransition(email.State, state) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, email.State, state)
	}
	before := email.State
	email.State = state
	email.UpdatedAt = c.Clock.Now()
	if err := c.Emails.Update(ctx, email); err != nil {
		return nil, err
	}
	if err := c.addLog(ctx, email, &before, details, authorID); err != nil {
		return nil, err
	}
	c.index(ctx, email)
	return email, nil
}

// EditEmail applies administrator edits to the rendered email.
func (c *Controller) EditEmail(ctx context.Context, email *entity.ScheduledEmail, p EditParams, authorID *int64) (*entity.ScheduledEmail, error) {
	if !slices.Contains(entity.EditableStates, email.State) {
		return nil, fmt.Errorf("%w: cannot edit %s email", ErrInvalidTransition, email.State)
	}
	if len(p.ToHeader) == 0 {
		return nil, ErrMissingRecipients
	}
	toModel := make(ToHeaderModel, 0, len(p.ToHeader))
	for _, addr := range p.ToHeader {
		toModel = append(toModel, ValueRecipient(addr))
	}
	toJSON, err := toModel.Raw()
	if err != nil {
		return nil, fmt.Errorf("encode recipients context: %w", err)
	}
	email.ToHeader = p.ToHeader
	email.ToHeaderContextJSON = toJSON
	email.FromHeader = p.FromHeader
	email.ReplyToHeader = p.ReplyToHeader
	email.CCHeader = p.CCHeader
	email.BCCHeader = p.BCCHeader
	email.Subject = p.Subject
	email.Body = p.Body
	email.UpdatedAt = c.Clock.Now()
	if err := c.Emails.Update(ctx, email); err != nil {
		return nil, err
	}
	before := email.State
	if err := c.addLog(ctx, email, &before, "Scheduled email was changed.", authorID); err != nil {
		return nil, err
	}
	c.index(ctx, email)
	return email, nil
}

// AddAttachment uploads content and links it to email.
func (c *Controller) AddAttachment(ctx context.Context, email *entity.ScheduledEmail, filename, contentType string, content io.Reader) (*entity.Attachment, error) {
	if c.Storage == nil {
		return nil, errors.New("attachment storage not configured")
	}
	objectPath := path.Join("attachments", email.ID.String(), filename)
	url, err := c.Storage.Upload(ctx, objectPath, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	a := &entity.Attachment{
		ID:               uuid.New(),
		ScheduledEmailID: email.ID,
		Filename:         filename,
		ObjectPath:       objectPath,
		URL:              url,
		CreatedAt:        c.Clock.Now(),
	}
	if err := c.Emails.AddAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *Controller) addLog(ctx context.Context, email *entity.ScheduledEmail, before *entity.ScheduledEmailState, details string, authorID *int64) error {
	after := email.State
	return c.Emails.AddLog(ctx, &entity.ScheduledEmailLog{
		ID:               uuid.New(),
		ScheduledEmailID: email.ID,
		Details:          details,
		StateBefore:      before,
		StateAfter:       &after,
		AuthorID:         authorID,
		CreatedAt:        c.Clock.Now(),
	})
}

func (c *Controller) index(ctx context.Context, email *entity.ScheduledEmail) {
	if c.Indexer == nil {
		return
	}
	if err := c.Indexer.Index(ctx, email); err != nil {
		c.log().WithError(err).WithField("scheduled_email_id", email.ID).Warn("index scheduled email failed")
	}
}
