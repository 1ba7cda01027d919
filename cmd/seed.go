package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oksasatya/amy-emails/internal/container"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
	"github.com/oksasatya/amy-emails/pkg/helpers"
)

const defaultTemplateBody = `Hello,

This is an automated message from AMY about **%s**.

Edit this template in the AMY admin before enabling the email module.
`

func seedCommand(a *app) *cobra.Command {
	var (
		from     string
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create default email templates and an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			created, err := seedTemplates(ctx, container.GetServices().Templates, from)
			if err != nil {
				return err
			}
			a.logger.WithField("created", created).Info("default templates ensured")

			if email == "" {
				return nil
			}
			id, err := seedAdmin(ctx, email, password)
			if err != nil {
				return err
			}
			a.logger.WithField("person_id", id).WithField("email", email).Info("administrator ensured")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "team@carpentries.org", "from header of the default templates")
	cmd.Flags().StringVar(&email, "admin-email", "", "create or update an administrator with this email")
	cmd.Flags().StringVar(&password, "admin-password", "", "password for --admin-email")
	return cmd
}

// seedTemplates adds an active template for every signal that has none.
func seedTemplates(ctx context.Context, templates repository.EmailTemplateRepository, from string) (int, error) {
	created := 0
	for _, s := range signal.All {
		_, err := templates.GetActiveBySignal(ctx, string(s))
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}
		title := strings.ReplaceAll(string(s), "_", " ")
		t := &entity.EmailTemplate{
			Name:       title,
			Signal:     string(s),
			FromHeader: from,
			Subject:    "AMY: " + title,
			Body:       fmt.Sprintf(defaultTemplateBody, title),
			Active:     true,
		}
		if err := templates.Create(ctx, t); err != nil {
			return created, fmt.Errorf("create template %s: %w", s, err)
		}
		created++
	}
	return created, nil
}

func seedAdmin(ctx context.Context, email, password string) (int64, error) {
	if len(password) < 8 {
		return 0, errors.New("--admin-password must be at least 8 characters")
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	username, _, _ := strings.Cut(email, "@")
	var id int64
	err = container.GetPGPool().QueryRow(ctx, `
		INSERT INTO persons (username, personal, email, password_hash, is_admin, is_active)
		VALUES ($1, $1, $2, $3, TRUE, TRUE)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_admin = TRUE, updated_at = NOW()
		RETURNING id
	`, username, email, hash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("seed administrator: %w", err)
	}
	return id, nil
}
