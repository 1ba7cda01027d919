package main

import (
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/oksasatya/amy-emails/config"
	"github.com/oksasatya/amy-emails/internal/application/delivery"
	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/container"
	"github.com/oksasatya/amy-emails/internal/metrics"
	"github.com/oksasatya/amy-emails/pkg/helpers"
	"github.com/oksasatya/amy-emails/pkg/mailer"
)

// newSender picks Mailgun, then SMTP, and logs emails instead of sending
// them when delivery is switched off or nothing is configured.
func newSender(cfg *config.Config, logger *logrus.Logger) mailer.Sender {
	switch {
	case !cfg.MailSendEnabled:
		return mailer.LogSender{Logger: logger}
	case cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "":
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	case cfg.SMTPHost != "":
		return &mailer.SMTP{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			Sender:   cfg.SMTPSender,
		}
	}
	logger.Warn("no mail provider configured; emails will only be logged")
	return mailer.LogSender{Logger: logger}
}

func workerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Send queued scheduled emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := a.cfg, a.logger
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.connect(ctx); err != nil {
				return err
			}
			metrics.Init()

			consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.WorkerConcurrency)
			if err != nil {
				return err
			}
			defer consumer.Close()

			svc := container.GetServices()
			owner := "worker-" + uuid.NewString()
			w := &delivery.Worker{
				Emails:      svc.Emails,
				Controller:  svc.Controller,
				Resolver:    emails.RepositoryResolver{Repo: svc.Domain},
				Renderer:    svc.Renderer,
				Sender:      newSender(cfg, logger),
				Redis:       container.GetRedis(),
				Limiter:     rate.NewLimiter(rate.Limit(cfg.WorkerRatePerSec), 1),
				Logger:      logger,
				Owner:       owner,
				Concurrency: cfg.WorkerConcurrency,
				MaxRetries:  cfg.WorkerMaxRetries,
			}
			if svc.Storage != nil {
				w.Storage = svc.Storage
			}

			deliveries, err := consumer.Deliveries(ctx, owner)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"queue": cfg.RabbitMQEmailQueue, "concurrency": cfg.WorkerConcurrency}).Info("worker started")
			w.Consume(ctx, deliveries)
			logger.Info("worker stopped")
			return nil
		},
	}
}
