package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/container"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

func backfillCommand(a *app) *cobra.Command {
	var (
		tag    string
		dryRun bool
		author string
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Schedule event emails for upcoming events that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			svc := container.GetServices()

			var person *entity.Person
			if author != "" {
				p, err := svc.Domain.GetPersonByEmail(ctx, author)
				if err != nil {
					return fmt.Errorf("load author %s: %w", author, err)
				}
				person = p
			}

			req := emails.NewRequest(person, a.logger.WithField("command", "backfill"))
			req.SuppressMessages = true
			req.DryRun = dryRun

			results, err := svc.Actions.Backfill(ctx, req, tag, time.Now().UTC())
			if err != nil {
				return err
			}
			created := 0
			for id, r := range results {
				for name, s := range r {
					if s == emails.StrategyCreate {
						created++
						a.logger.WithFields(logrus.Fields{"event_id": id, "signal": name}).Info("backfill scheduled email")
					}
				}
			}
			a.logger.WithFields(logrus.Fields{"events": len(results), "created": created, "dry_run": dryRun}).Info("backfill finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only events carrying this tag")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what would be scheduled without writing")
	cmd.Flags().StringVar(&author, "author", "", "email of the person recorded as author")
	return cmd
}
