package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

type ScheduledEmailRepository struct {
	db DB
}

func NewScheduledEmailRepository(db DB) *ScheduledEmailRepository {
	return &ScheduledEmailRepository{db: db}
}

var _ repository.ScheduledEmailRepository = (*ScheduledEmailRepository)(nil)

const scheduledEmailColumns = `
	se.id, se.state, se.scheduled_at, se.to_header, se.to_header_context_json,
	se.from_header, se.reply_to_header, se.cc_header, se.bcc_header,
	se.subject, se.body, se.template_id, se.relation_kind, se.relation_id,
	se.context_json, se.created_at, se.last_updated_at,
	COALESCE(t.name, ''), COALESCE(t.signal, '')
	FROM scheduled_emails se
	LEFT JOIN email_templates t ON t.id = se.template_id`

func scanScheduledEmail(row pgx.Row) (*entity.ScheduledEmail, error) {
	var (
		e            entity.ScheduledEmail
		state        string
		templateID   uuid.NullUUID
		relationKind string
		name, signal string
	)
	err := row.Scan(
		&e.ID, &state, &e.ScheduledAt, &e.ToHeader, &e.ToHeaderContextJSON,
		&e.FromHeader, &e.ReplyToHeader, &e.CCHeader, &e.BCCHeader,
		&e.Subject, &e.Body, &templateID, &relationKind, &e.Relation.ID,
		&e.ContextJSON, &e.CreatedAt, &e.UpdatedAt,
		&name, &signal,
	)
	if err != nil {
		return nil, err
	}
	e.State = entity.ScheduledEmailState(state)
	e.Relation.Kind = entity.RelationKind(relationKind)
	if templateID.Valid {
		id := templateID.UUID
		e.TemplateID = &id
		e.Template = &entity.EmailTemplate{ID: id, Name: name, Signal: signal}
	}
	return &e, nil
}

func collectScheduledEmails(rows pgx.Rows) ([]*entity.ScheduledEmail, error) {
	defer rows.Close()
	out := []*entity.ScheduledEmail{}
	for rows.Next() {
		e, err := scanScheduledEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func stateNames(states []entity.ScheduledEmailState) []string {
	if len(states) == 0 {
		return nil
	}
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func templateIDArg(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *ScheduledEmailRepository) Create(ctx context.Context, e *entity.ScheduledEmail) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO scheduled_emails (
			id, state, scheduled_at, to_header, to_header_context_json,
			from_header, reply_to_header, cc_header, bcc_header,
			subject, body, template_id, relation_kind, relation_id,
			context_json, created_at, last_updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, e.ID, string(e.State), e.ScheduledAt, nonNil(e.ToHeader), jsonOr(e.ToHeaderContextJSON, "[]"),
		e.FromHeader, e.ReplyToHeader, nonNil(e.CCHeader), nonNil(e.BCCHeader),
		e.Subject, e.Body, templateIDArg(e.TemplateID), string(e.Relation.Kind), e.Relation.ID,
		jsonOr(e.ContextJSON, "{}"), e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *ScheduledEmailRepository) Update(ctx context.Context, e *entity.ScheduledEmail) error {
	res, err := r.db.Exec(ctx, `
		UPDATE scheduled_emails
		SET state = $1, scheduled_at = $2, to_header = $3, to_header_context_json = $4,
			from_header = $5, reply_to_header = $6, cc_header = $7, bcc_header = $8,
			subject = $9, body = $10, template_id = $11, relation_kind = $12, relation_id = $13,
			context_json = $14, last_updated_at = $15
		WHERE id = $16
	`, string(e.State), e.ScheduledAt, nonNil(e.ToHeader), jsonOr(e.ToHeaderContextJSON, "[]"),
		e.FromHeader, e.ReplyToHeader, nonNil(e.CCHeader), nonNil(e.BCCHeader),
		e.Subject, e.Body, templateIDArg(e.TemplateID), string(e.Relation.Kind), e.Relation.ID,
		jsonOr(e.ContextJSON, "{}"), e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ScheduledEmailRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduledEmail, error) {
	e, err := scanScheduledEmail(r.db.QueryRow(ctx, `SELECT `+scheduledEmailColumns+` WHERE se.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r *ScheduledEmailRepository) FindByRelation(ctx context.Context, signal string, rel entity.Relation, states ...entity.ScheduledEmailState) ([]*entity.ScheduledEmail, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduledEmailColumns+`
		WHERE t.signal = $1 AND se.relation_kind = $2 AND se.relation_id = $3
			AND ($4::text[] IS NULL OR se.state = ANY($4))
		ORDER BY se.created_at, se.id`,
		signal, string(rel.Kind), rel.ID, stateNames(states))
	if err != nil {
		return nil, err
	}
	return collectScheduledEmails(rows)
}

func (r *ScheduledEmailRepository) ExistsForRelation(ctx context.Context, signal string, rel entity.Relation, states ...entity.ScheduledEmailState) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM scheduled_emails se
			JOIN email_templates t ON t.id = se.template_id
			WHERE t.signal = $1 AND se.relation_kind = $2 AND se.relation_id = $3
				AND ($4::text[] IS NULL OR se.state = ANY($4))
		)`, signal, string(rel.Kind), rel.ID, stateNames(states)).Scan(&exists)
	return exists, err
}

func (r *ScheduledEmailRepository) List(ctx context.Context, p repository.ListParams) ([]*entity.ScheduledEmail, int, error) {
	states := stateNames(p.States)
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM scheduled_emails se
		LEFT JOIN email_templates t ON t.id = se.template_id
		WHERE ($1::text[] IS NULL OR se.state = ANY($1)) AND ($2 = '' OR t.signal = $2)`,
		states, p.Signal).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+scheduledEmailColumns+`
		WHERE ($1::text[] IS NULL OR se.state = ANY($1)) AND ($2 = '' OR t.signal = $2)
		ORDER BY se.created_at DESC, se.id
		LIMIT NULLIF($3, 0) OFFSET $4`,
		states, p.Signal, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectScheduledEmails(rows)
	return out, total, err
}

func (r *ScheduledEmailRepository) Due(ctx context.Context, p repository.DueParams) ([]*entity.ScheduledEmail, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduledEmailColumns+`
		WHERE se.state = ANY($1) AND se.scheduled_at <= $2
			AND (se.state <> 'failed' OR (
				SELECT COUNT(*) FROM scheduled_email_logs l
				WHERE l.scheduled_email_id = se.id AND l.state_after = 'failed'
			) <= $3)
		ORDER BY se.scheduled_at
		LIMIT NULLIF($4, 0)`,
		stateNames(p.States), p.Now, int64(p.MaxFailures), p.Limit)
	if err != nil {
		return nil, err
	}
	return collectScheduledEmails(rows)
}

func stateArg(s *entity.ScheduledEmailState) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func (r *ScheduledEmailRepository) AddLog(ctx context.Context, l *entity.ScheduledEmailLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO scheduled_email_logs (id, scheduled_email_id, details, state_before, state_after, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.ScheduledEmailID, l.Details, stateArg(l.StateBefore), stateArg(l.StateAfter), l.AuthorID, l.CreatedAt)
	return err
}

func (r *ScheduledEmailRepository) Logs(ctx context.Context, emailID uuid.UUID) ([]*entity.ScheduledEmailLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, scheduled_email_id, details, COALESCE(state_before, ''), COALESCE(state_after, ''),
			COALESCE(author_id, 0), created_at
		FROM scheduled_email_logs
		WHERE scheduled_email_id = $1
		ORDER BY created_at, id
	`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.ScheduledEmailLog{}
	for rows.Next() {
		var (
			l             entity.ScheduledEmailLog
			before, after string
			author        int64
		)
		if err := rows.Scan(&l.ID, &l.ScheduledEmailID, &l.Details, &before, &after, &author, &l.CreatedAt); err != nil {
			return nil, err
		}
		if before != "" {
			s := entity.ScheduledEmailState(before)
			l.StateBefore = &s
		}
		if after != "" {
			s := entity.ScheduledEmailState(after)
			l.StateAfter = &s
		}
		if author != 0 {
			l.AuthorID = &author
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *ScheduledEmailRepository) AddAttachment(ctx context.Context, a *entity.Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO scheduled_email_attachments (id, scheduled_email_id, filename, object_path, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.ScheduledEmailID, a.Filename, a.ObjectPath, a.URL, a.CreatedAt)
	return err
}

func (r *ScheduledEmailRepository) Attachments(ctx context.Context, emailID uuid.UUID) ([]*entity.Attachment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, scheduled_email_id, filename, object_path, url, created_at
		FROM scheduled_email_attachments
		WHERE scheduled_email_id = $1
		ORDER BY created_at, id
	`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*entity.Attachment{}
	for rows.Next() {
		var a entity.Attachment
		if err := rows.Scan(&a.ID, &a.ScheduledEmailID, &a.Filename, &a.ObjectPath, &a.URL, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
