package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

type EmailTemplateRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*entity.EmailTemplate
}

var _ repository.EmailTemplateRepository = (*EmailTemplateRepository)(nil)

func NewEmailTemplateRepository(templates ...*entity.EmailTemplate) *EmailTemplateRepository {
	r := &EmailTemplateRepository{templates: map[uuid.UUID]*entity.EmailTemplate{}}
	for _, t := range templates {
		_ = r.Create(context.Background(), t)
	}
	return r
}

func (r *EmailTemplateRepository) Create(_ context.Context, t *entity.EmailTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	c := *t
	r.templates[t.ID] = &c
	return nil
}

func (r *EmailTemplateRepository) Update(_ context.Context, t *entity.EmailTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *t
	r.templates[t.ID] = &c
	return nil
}

func (r *EmailTemplateRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *EmailTemplateRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *EmailTemplateRepository) GetActiveBySignal(_ context.Context, signal string) (*entity.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.templates {
		if t.Signal == signal && t.Active {
			c := *t
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *EmailTemplateRepository) List(_ context.Context) ([]*entity.EmailTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.EmailTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
