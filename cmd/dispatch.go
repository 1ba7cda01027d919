package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oksasatya/amy-emails/internal/application/delivery"
	"github.com/oksasatya/amy-emails/internal/container"
	"github.com/oksasatya/amy-emails/internal/metrics"
	"github.com/oksasatya/amy-emails/pkg/helpers"
)

func dispatchCommand(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Queue due scheduled emails for delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := a.cfg, a.logger
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.connect(ctx); err != nil {
				return err
			}
			metrics.Init()

			pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
			if err != nil {
				return err
			}
			defer pub.Close()
			container.SetRabbitPub(pub)

			svc := container.GetServices()
			d := &delivery.Dispatcher{
				Emails:     svc.Emails,
				Controller: svc.Controller,
				Publisher:  pub,
				Redis:      container.GetRedis(),
				Logger:     logger,
				Owner:      "dispatcher-" + uuid.NewString(),
				BatchSize:  cfg.DispatchBatchSize,
				LockTTL:    cfg.DispatchLockTTL,
				MaxRetries: cfg.WorkerMaxRetries,
			}

			if once {
				n, err := d.RunOnce(ctx)
				logger.WithField("queued", n).Info("dispatch finished")
				return err
			}
			logger.WithField("interval", cfg.DispatchInterval).Info("dispatcher started")
			if err := d.Run(ctx, cfg.DispatchInterval); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			logger.Info("dispatcher stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "dispatch a single batch and exit")
	return cmd
}
