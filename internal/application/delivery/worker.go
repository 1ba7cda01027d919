package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/infrastructure/lock"
	"github.com/oksasatya/amy-emails/internal/metrics"
	"github.com/oksasatya/amy-emails/pkg/mailer"
)

// ErrBadJob marks a queue message that can never be processed.
var ErrBadJob = errors.New("malformed email job")

const lockTTL = 5 * time.Minute

// AttachmentOpener reads stored attachment bytes back.
type AttachmentOpener interface {
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
}

type Worker struct {
	Emails     repository.ScheduledEmailRepository
	Controller *emails.Controller
	Resolver   emails.ObjectResolver
	Renderer   *emails.Renderer
	Sender     mailer.Sender
	Storage    AttachmentOpener
	Redis      redis.UniversalClient
	Limiter    *rate.Limiter
	Logger     *logrus.Logger

	Owner       string
	Concurrency int
	MaxRetries  uint64
}

func (w *Worker) log() logrus.FieldLogger {
	if w.Logger == nil {
		return logrus.StandardLogger()
	}
	return w.Logger.WithField("component", "worker")
}

// Consume handles deliveries with Concurrency goroutines until the channel
// closes or ctx is done. Malformed jobs are dropped, infrastructure errors
// requeue the message.
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	n := w.Concurrency
	if n <= 0 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					w.handleDelivery(ctx, d)
				}
			}
		}()
	}
	wg.Wait()
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.log().WithError(err).Error("invalid job payload")
		_ = d.Nack(false, false)
		return
	}
	err := w.Handle(ctx, job)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrBadJob):
		w.log().WithError(err).Error("dropping job")
		_ = d.Nack(false, false)
	default:
		w.log().WithError(err).WithField("scheduled_email_id", job.ScheduledEmailID).Warn("job failed; requeueing")
		_ = d.Nack(false, true)
	}
}

// Handle sends one queued email. Delivery failures are recorded on the
// email and are not returned; only errors worth a redelivery are.
func (w *Worker) Handle(ctx context.Context, job mailer.EmailJob) error {
	id, err := uuid.Parse(job.ScheduledEmailID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	log := w.log().WithField("scheduled_email_id", id)

	if w.Redis != nil {
		l := lock.ForEmail(w.Redis, id, w.Owner)
		if err := l.Lock(ctx, lockTTL); err != nil {
			return err
		}
		defer func() { _ = l.Unlock(context.WithoutCancel(ctx)) }()
	}

	e, err := w.Emails.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("scheduled email no longer exists")
		return nil
	}
	if err != nil {
		return err
	}
	if e.State != entity.StateLocked {
		log.WithField("state", e.State).Info("scheduled email is not locked; skipping")
		return nil
	}

	if w.Limiter != nil {
		if err := w.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if _, err := w.Controller.RunEmail(ctx, e, "State changed by worker", nil); err != nil {
		return err
	}

	msg, err := w.Build(ctx, e)
	if err == nil {
		err = mailer.SendWithRetry(ctx, w.Sender, msg, w.MaxRetries)
	}
	if err != nil {
		metrics.EmailFailures.Inc()
		log.WithError(err).Error("scheduled email failed")
		_, ferr := w.Controller.FailEmail(ctx, e, fmt.Sprintf("Email failed to send: %v", err), nil)
		return ferr
	}

	metrics.EmailsSent.Inc()
	log.Info("scheduled email sent")
	_, err = w.Controller.SucceedEmail(ctx, e, "Email sent successfully", nil)
	return err
}

// Build turns e into a message. Subject and body were rendered when the
// email was scheduled or edited and are sent as stored. Recipients are
// resolved again from the stored recipient context so address changes since
// scheduling are picked up.
func (w *Worker) Build(ctx context.Context, e *entity.ScheduledEmail) (mailer.Message, error) {
	toModel, err := emails.DecodeToHeaderModel(e.ToHeaderContextJSON)
	if err != nil {
		return mailer.Message{}, fmt.Errorf("decode recipients: %w", err)
	}
	to, err := emails.BuildRecipients(ctx, w.Resolver, toModel)
	if err != nil {
		return mailer.Message{}, fmt.Errorf("build recipients: %w", err)
	}
	if len(to) == 0 {
		to = e.ToHeader
	}
	if len(to) == 0 {
		return mailer.Message{}, emails.ErrMissingRecipients
	}

	subject, body := e.Subject, e.Body
	html, err := w.Renderer.MarkdownToHTML(body)
	if err != nil {
		return mailer.Message{}, fmt.Errorf("markdown: %w", err)
	}

	attachments, err := w.attachments(ctx, e)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		From:        e.FromHeader,
		To:          to,
		CC:          e.CCHeader,
		BCC:         e.BCCHeader,
		ReplyTo:     e.ReplyToHeader,
		Subject:     subject,
		Text:        body,
		HTML:        html,
		Attachments: attachments,
	}, nil
}

func (w *Worker) attachments(ctx context.Context, e *entity.ScheduledEmail) ([]mailer.Attachment, error) {
	stored, err := w.Emails.Attachments(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 && w.Storage == nil {
		return nil, errors.New("attachment storage not configured")
	}
	out := make([]mailer.Attachment, 0, len(stored))
	for _, a := range stored {
		r, err := w.Storage.Open(ctx, a.ObjectPath)
		if err != nil {
			return nil, fmt.Errorf("open attachment %s: %w", a.Filename, err)
		}
		b, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", a.Filename, err)
		}
		out = append(out, mailer.Attachment{Filename: a.Filename, Content: b})
	}
	return out, nil
}
