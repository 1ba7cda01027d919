// Package delivery moves due scheduled emails onto the queue and sends them.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/infrastructure/lock"
	"github.com/oksasatya/amy-emails/internal/metrics"
	"github.com/oksasatya/amy-emails/pkg/mailer"
)

// DueStates are picked up by the dispatcher. FAILED emails are retried
// until they reach the retry limit.
var DueStates = []entity.ScheduledEmailState{entity.StateScheduled, entity.StateFailed}

type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Dispatcher struct {
	Emails     repository.ScheduledEmailRepository
	Controller *emails.Controller
	Publisher  Publisher
	Redis      redis.UniversalClient
	Logger     *logrus.Logger
	Clock      emails.Clock

	Owner      string
	BatchSize  int
	LockTTL    time.Duration
	MaxRetries uint64
}

func (d *Dispatcher) log() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger.WithField("component", "dispatcher")
}

// RunOnce locks every due email and queues a job for it. It returns the
// number of emails queued. FAILED emails past MaxRetries are never loaded,
// so they cannot crowd fresh emails out of a batch.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	due, err := d.Emails.Due(ctx, repository.DueParams{
		Now:         d.Clock.Now(),
		States:      DueStates,
		MaxFailures: d.MaxRetries,
		Limit:       d.BatchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("load due emails: %w", err)
	}
	queued := 0
	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return queued, err
		}
		ok, err := d.dispatch(ctx, e)
		if err != nil {
			d.log().WithError(err).WithField("scheduled_email_id", e.ID).Error("dispatch failed")
			continue
		}
		if ok {
			queued++
		}
	}
	return queued, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, e *entity.ScheduledEmail) (bool, error) {
	l := lock.ForEmail(d.Redis, e.ID, d.Owner)
	if err := l.Lock(ctx, d.LockTTL); err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if err := l.Unlock(context.WithoutCancel(ctx)); err != nil {
			d.log().WithError(err).Warn("release email lock")
		}
	}()

	if _, err := d.Controller.LockEmail(ctx, e, "State changed by dispatcher", nil); err != nil {
		return false, err
	}
	job := mailer.EmailJob{ScheduledEmailID: e.ID.String(), EnqueuedAt: d.Clock.Now()}
	if err := d.Publisher.PublishJSON(ctx, job); err != nil {
		details := fmt.Sprintf("Could not queue email: %v", err)
		if _, rerr := d.Controller.ChangeState(ctx, e, entity.StateScheduled, details, nil); rerr != nil {
			return false, errors.Join(err, rerr)
		}
		return false, err
	}
	metrics.EmailsDispatched.Inc()
	d.log().WithField("scheduled_email_id", e.ID).Info("scheduled email queued")
	return true, nil
}

// Run calls RunOnce every interval until ctx is done. Only one dispatcher
// process runs a tick at a time.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		d.tick(ctx, interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context, interval time.Duration) {
	l := lock.ForDispatcher(d.Redis, d.Owner)
	if err := l.Lock(ctx, interval); err != nil {
		if !errors.Is(err, lock.ErrLockNotAcquired) {
			d.log().WithError(err).Warn("acquire dispatcher lock")
		}
		return
	}
	defer func() { _ = l.Unlock(context.WithoutCancel(ctx)) }()

	n, err := d.RunOnce(ctx)
	if err != nil {
		d.log().WithError(err).Error("dispatch tick failed")
		return
	}
	if n > 0 {
		d.log().WithField("queued", n).Info("dispatch tick done")
	}
}
