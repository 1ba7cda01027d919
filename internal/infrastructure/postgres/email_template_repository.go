package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

type EmailTemplateRepository struct {
	db DB
}

func NewEmailTemplateRepository(db DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

var _ repository.EmailTemplateRepository = (*EmailTemplateRepository)(nil)

const templateColumns = `id, name, signal, from_header, reply_to_header, cc_header, bcc_header,
	subject, body, active, created_at, last_updated_at`

func scanTemplate(row pgx.Row) (*entity.EmailTemplate, error) {
	var t entity.EmailTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Signal, &t.FromHeader, &t.ReplyToHeader, &t.CCHeader, &t.BCCHeader,
		&t.Subject, &t.Body, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *EmailTemplateRepository) Create(ctx context.Context, t *entity.EmailTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, t.ID, t.Name, t.Signal, t.FromHeader, t.ReplyToHeader, nonNil(t.CCHeader), nonNil(t.BCCHeader),
		t.Subject, t.Body, t.Active, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *EmailTemplateRepository) Update(ctx context.Context, t *entity.EmailTemplate) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(ctx, `
		UPDATE email_templates
		SET name = $1, signal = $2, from_header = $3, reply_to_header = $4, cc_header = $5, bcc_header = $6,
			subject = $7, body = $8, active = $9, last_updated_at = $10
		WHERE id = $11
	`, t.Name, t.Signal, t.FromHeader, t.ReplyToHeader, nonNil(t.CCHeader), nonNil(t.BCCHeader),
		t.Subject, t.Body, t.Active, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EmailTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EmailTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *EmailTemplateRepository) GetActiveBySignal(ctx context.Context, signal string) (*entity.EmailTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM email_templates
		WHERE signal = $1 AND active
		LIMIT 1`, signal))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *EmailTemplateRepository) List(ctx context.Context) ([]*entity.EmailTemplate, error) {
	rows, err := r.db.Query(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.EmailTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
