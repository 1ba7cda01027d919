package emails

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
	"github.com/oksasatya/amy-emails/internal/metrics"
)

// Action describes how one business event turns its payload into a
// scheduled email. Cancel receivers only use Signal, Context and Relation.
type Action[P any] struct {
	Signal         signal.Name
	Context        func(ctx context.Context, p P) (Context, error)
	ContextJSON    func(c Context) ContextModel
	Relation       func(c Context, p P) entity.Relation
	ScheduledAt    func(p P, now time.Time) time.Time
	Recipients     func(c Context, p P) []string
	RecipientsJSON func(c Context, p P) ToHeaderModel

	// AfterSchedule runs once a new email is stored.
	AfterSchedule func(ctx context.Context, req *Request, email *entity.ScheduledEmail, c Context) error
}

func outcome(name signal.Name, v signal.Variant, o string) {
	metrics.ReceiverOutcomes.WithLabelValues(string(name), string(v), o).Inc()
}

// CreateReceiver schedules a new email for every payload it receives.
func CreateReceiver[P any](e *Engine, a *Action[P]) Receiver[P] {
	return func(ctx context.Context, req *Request, p P) error {
		if !e.flagEnabled(ctx, req, string(a.Signal)) {
			outcome(a.Signal, signal.Create, "disabled")
			return nil
		}
		c, err := a.Context(ctx, p)
		if err != nil {
			return fmt.Errorf("%s context: %w", a.Signal, err)
		}
		now := e.Now()
		params := ScheduleParams{
			Signal:              string(a.Signal),
			Context:             c,
			ContextJSON:         a.ContextJSON(c),
			ScheduledAt:         a.ScheduledAt(p, now),
			ToHeader:            a.Recipients(c, p),
			ToHeaderContextJSON: a.RecipientsJSON(c, p),
			Relation:            a.Relation(c, p),
			AuthorID:            req.AuthorID(),
		}
		log := e.Log().WithFields(logrus.Fields{"signal": a.Signal, "relation": params.Relation.String()})
		if req.DryRun {
			log.Infof("Dry run: would schedule %s to run at %s for %v", a.Signal, ISOFormat(params.ScheduledAt), params.ToHeader)
			outcome(a.Signal, signal.Create, "dry_run")
			return nil
		}

		email, err := e.Controller.ScheduleEmail(ctx, params)
		switch {
		case errors.Is(err, ErrMissingRecipients):
			req.Warning(fmt.Sprintf("Email action was not scheduled due to missing recipients for signal %s. "+
				"Please check if the persons involved have email addresses set.", a.Signal))
			outcome(a.Signal, signal.Create, "missing_recipients")
			return nil
		case errors.Is(err, ErrTemplateNotFound):
			req.Warning(fmt.Sprintf("Email action was not scheduled due to missing template for signal %s.", a.Signal))
			outcome(a.Signal, signal.Create, "missing_template")
			return nil
		case err != nil:
			outcome(a.Signal, signal.Create, "error")
			return fmt.Errorf("schedule %s: %w", a.Signal, err)
		}

		req.Info(fmt.Sprintf("New email action was scheduled to run at %s: %s (%s)",
			ISOFormat(email.ScheduledAt), email.TemplateName(string(a.Signal)), e.Link(email.ID)))
		outcome(a.Signal, signal.Create, "scheduled")

		if a.AfterSchedule != nil {
			if err := a.AfterSchedule(ctx, req, email, c); err != nil {
				log.WithError(err).WithField("scheduled_email_id", email.ID).Warn("post-schedule step failed")
			}
		}
		return nil
	}
}

// UpdateReceiver refreshes the single SCHEDULED email for the payload's
// relation. Zero or several matches are logged and left alone.
func UpdateReceiver[P any](e *Engine, a *Action[P]) Receiver[P] {
	return func(ctx context.Context, req *Request, p P) error {
		if !e.flagEnabled(ctx, req, string(a.Signal)+"_update") {
			outcome(a.Signal, signal.Update, "disabled")
			return nil
		}
		c, err := a.Context(ctx, p)
		if err != nil {
			return fmt.Errorf("%s context: %w", a.Signal, err)
		}
		rel := a.Relation(c, p)
		log := e.Log().WithFields(logrus.Fields{"signal": a.Signal, "relation": rel.String()})

		found, err := e.Emails.FindByRelation(ctx, string(a.Signal), rel, entity.StateScheduled)
		if err != nil {
			return fmt.Errorf("find scheduled %s: %w", a.Signal, err)
		}
		switch {
		case len(found) == 0:
			log.Warnf("Scheduled email for signal %s and %s does not exist.", a.Signal, rel)
			outcome(a.Signal, signal.Update, "not_found")
			return nil
		case len(found) > 1:
			log.Warnf("Too many scheduled emails for signal %s and %s. Can't update them.", a.Signal, rel)
			outcome(a.Signal, signal.Update, "ambiguous")
			return nil
		}

		params := UpdateParams{
			Email:               found[0],
			Context:             c,
			ContextJSON:         a.ContextJSON(c),
			ScheduledAt:         a.ScheduledAt(p, e.Now()),
			ToHeader:            a.Recipients(c, p),
			ToHeaderContextJSON: a.RecipientsJSON(c, p),
			Relation:            rel,
			AuthorID:            req.AuthorID(),
		}
		if req.DryRun {
			log.Infof("Dry run: would update email %s to run at %s", found[0].ID, ISOFormat(params.ScheduledAt))
			outcome(a.Signal, signal.Update, "dry_run")
			return nil
		}

		email, err := e.Controller.UpdateScheduledEmail(ctx, params)
		switch {
		case errors.Is(err, ErrMissingRecipients):
			req.Warning(fmt.Sprintf("Email action was not scheduled due to missing recipients for signal %s. "+
				"Please check if the persons involved have email addresses set.", a.Signal))
			outcome(a.Signal, signal.Update, "missing_recipients")
			return nil
		case errors.Is(err, ErrTemplateNotFound):
			req.Warning(fmt.Sprintf("Email action %s update was not performed due to missing linked template.", found[0].ID))
			outcome(a.Signal, signal.Update, "missing_template")
			return nil
		case err != nil:
			outcome(a.Signal, signal.Update, "error")
			return fmt.Errorf("update %s: %w", a.Signal, err)
		}

		req.Info(fmt.Sprintf("Existing email action (%s) was updated: %s",
			email.TemplateName(string(a.Signal)), e.Link(email.ID)))
		outcome(a.Signal, signal.Update, "updated")
		return nil
	}
}

// CancelReceiver cancels every SCHEDULED email for the payload's relation.
func CancelReceiver[P any](e *Engine, a *Action[P]) Receiver[P] {
	return func(ctx context.Context, req *Request, p P) error {
		if !e.flagEnabled(ctx, req, string(a.Signal)+"_remove") {
			outcome(a.Signal, signal.Cancel, "disabled")
			return nil
		}
		c, err := a.Context(ctx, p)
		if err != nil {
			return fmt.Errorf("%s context: %w", a.Signal, err)
		}
		rel := a.Relation(c, p)
		log := e.Log().WithFields(logrus.Fields{"signal": a.Signal, "relation": rel.String()})

		found, err := e.Emails.FindByRelation(ctx, string(a.Signal), rel, entity.StateScheduled)
		if err != nil {
			return fmt.Errorf("find scheduled %s: %w", a.Signal, err)
		}
		for _, email := range found {
			if req.DryRun {
				log.Infof("Dry run: would cancel email %s", email.ID)
				continue
			}
			cancelled, err := e.Controller.CancelEmail(ctx, email, req.AuthorID())
			if err != nil {
				outcome(a.Signal, signal.Cancel, "error")
				return fmt.Errorf("cancel %s: %w", email.ID, err)
			}
			req.Warning(fmt.Sprintf("Existing email action (%s) was cancelled: %s",
				cancelled.TemplateName(string(a.Signal)), e.Link(cancelled.ID)))
			outcome(a.Signal, signal.Cancel, "cancelled")
		}
		return nil
	}
}

// Connect wires the generic receivers for a onto trio. Create-only trios
// only get the create receiver.
func Connect[P any](e *Engine, trio *Trio[P], a *Action[P]) {
	trio.Create.Connect(CreateReceiver(e, a))
	if trio.Update != nil {
		trio.Update.Connect(UpdateReceiver(e, a))
	}
	if trio.Cancel != nil {
		trio.Cancel.Connect(CancelReceiver(e, a))
	}
}
