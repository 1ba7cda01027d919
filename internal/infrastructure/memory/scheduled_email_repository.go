// Package memory holds in-process repositories for tests and for local
// runs without Postgres.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

type ScheduledEmailRepository struct {
	mu          sync.RWMutex
	emails      map[uuid.UUID]*entity.ScheduledEmail
	order       []uuid.UUID
	logs        map[uuid.UUID][]*entity.ScheduledEmailLog
	attachments map[uuid.UUID][]*entity.Attachment
	templates   repository.EmailTemplateRepository
}

var _ repository.ScheduledEmailRepository = (*ScheduledEmailRepository)(nil)

// NewScheduledEmailRepository links emails to templates so lookups by
// signal work like the SQL join.
func NewScheduledEmailRepository(templates repository.EmailTemplateRepository) *ScheduledEmailRepository {
	return &ScheduledEmailRepository{
		emails:      map[uuid.UUID]*entity.ScheduledEmail{},
		logs:        map[uuid.UUID][]*entity.ScheduledEmailLog{},
		attachments: map[uuid.UUID][]*entity.Attachment{},
		templates:   templates,
	}
}

func clone(e *entity.ScheduledEmail) *entity.ScheduledEmail {
	c := *e
	c.ToHeader = slices.Clone(e.ToHeader)
	c.CCHeader = slices.Clone(e.CCHeader)
	c.BCCHeader = slices.Clone(e.BCCHeader)
	return &c
}

func (r *ScheduledEmailRepository) Create(_ context.Context, e *entity.ScheduledEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.emails[e.ID] = clone(e)
	r.order = append(r.order, e.ID)
	return nil
}

func (r *ScheduledEmailRepository) Update(_ context.Context, e *entity.ScheduledEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emails[e.ID]; !ok {
		return repository.ErrNotFound
	}
	r.emails[e.ID] = clone(e)
	return nil
}

func (r *ScheduledEmailRepository) withTemplate(ctx context.Context, e *entity.ScheduledEmail) *entity.ScheduledEmail {
	out := clone(e)
	if out.TemplateID != nil && r.templates != nil {
		if tpl, err := r.templates.GetByID(ctx, *out.TemplateID); err == nil {
			out.Template = tpl
		}
	}
	return out
}

func (r *ScheduledEmailRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withTemplate(ctx, e), nil
}

func (r *ScheduledEmailRepository) signalOf(ctx context.Context, e *entity.ScheduledEmail) string {
	if e.Template != nil {
		return e.Template.Signal
	}
	if e.TemplateID == nil || r.templates == nil {
		return ""
	}
	tpl, err := r.templates.GetByID(ctx, *e.TemplateID)
	if err != nil {
		return ""
	}
	return tpl.Signal
}

func (r *ScheduledEmailRepository) FindByRelation(ctx context.Context, signal string, rel entity.Relation, states ...entity.ScheduledEmailState) ([]*entity.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ScheduledEmail
	for _, id := range r.order {
		e := r.emails[id]
		if e.Relation != rel || r.signalOf(ctx, e) != signal {
			continue
		}
		if len(states) > 0 && !slices.Contains(states, e.State) {
			continue
		}
		out = append(out, r.withTemplate(ctx, e))
	}
	return out, nil
}

func (r *ScheduledEmailRepository) ExistsForRelation(ctx context.Context, signal string, rel entity.Relation, states ...entity.ScheduledEmailState) (bool, error) {
	found, err := r.FindByRelation(ctx, signal, rel, states...)
	return len(found) > 0, err
}

func (r *ScheduledEmailRepository) List(ctx context.Context, p repository.ListParams) ([]*entity.ScheduledEmail, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.ScheduledEmail
	for i := len(r.order) - 1; i >= 0; i-- {
		e := r.emails[r.order[i]]
		if len(p.States) > 0 && !slices.Contains(p.States, e.State) {
			continue
		}
		if p.Signal != "" && r.signalOf(ctx, e) != p.Signal {
			continue
		}
		all = append(all, r.withTemplate(ctx, e))
	}
	total := len(all)
	if p.Offset >= total {
		return []*entity.ScheduledEmail{}, total, nil
	}
	all = all[p.Offset:]
	if p.Limit > 0 && len(all) > p.Limit {
		all = all[:p.Limit]
	}
	return all, total, nil
}

func (r *ScheduledEmailRepository) Due(ctx context.Context, p repository.DueParams) ([]*entity.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ScheduledEmail
	for _, id := range r.order {
		e := r.emails[id]
		if e.ScheduledAt.After(p.Now) || !slices.Contains(p.States, e.State) {
			continue
		}
		if e.State == entity.StateFailed && r.failures(id) > p.MaxFailures {
			continue
		}
		out = append(out, r.withTemplate(ctx, e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (r *ScheduledEmailRepository) failures(id uuid.UUID) uint64 {
	var n uint64
	for _, l := range r.logs[id] {
		if l.StateAfter != nil && *l.StateAfter == entity.StateFailed {
			n++
		}
	}
	return n
}

func (r *ScheduledEmailRepository) AddLog(_ context.Context, l *entity.ScheduledEmailLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[l.ScheduledEmailID] = append(r.logs[l.ScheduledEmailID], l)
	return nil
}

func (r *ScheduledEmailRepository) Logs(_ context.Context, emailID uuid.UUID) ([]*entity.ScheduledEmailLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.logs[emailID]), nil
}

func (r *ScheduledEmailRepository) AddAttachment(_ context.Context, a *entity.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachments[a.ScheduledEmailID] = append(r.attachments[a.ScheduledEmailID], a)
	return nil
}

func (r *ScheduledEmailRepository) Attachments(_ context.Context, emailID uuid.UUID) ([]*entity.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.attachments[emailID]), nil
}
