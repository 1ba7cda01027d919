package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
)

const localCacheSize = 1000

// TemplateCache caches active templates by signal and templates by id in
// Redis with a small local TinyLFU layer in front. Writes go through to
// the wrapped repository and invalidate both keys.
type TemplateCache struct {
	repository.EmailTemplateRepository
	cache *cache.Cache
	ttl   time.Duration
}

func NewTemplateCache(inner repository.EmailTemplateRepository, rdb *redis.Client, ttl time.Duration) *TemplateCache {
	return &TemplateCache{
		EmailTemplateRepository: inner,
		cache: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(localCacheSize, ttl),
		}),
		ttl: ttl,
	}
}

func signalKey(signal string) string { return "amy:template:signal:" + signal }
func idKey(id uuid.UUID) string      { return "amy:template:id:" + id.String() }

// GetActiveBySignal caches hits only; ErrNotFound always reaches the
// repository again.
func (c *TemplateCache) GetActiveBySignal(ctx context.Context, signal string) (*entity.EmailTemplate, error) {
	var tpl entity.EmailTemplate
	err := c.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   signalKey(signal),
		Value: &tpl,
		TTL:   c.ttl,
		Do: func(*cache.Item) (interface{}, error) {
			return c.EmailTemplateRepository.GetActiveBySignal(ctx, signal)
		},
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (c *TemplateCache) GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailTemplate, error) {
	var tpl entity.EmailTemplate
	err := c.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   idKey(id),
		Value: &tpl,
		TTL:   c.ttl,
		Do: func(*cache.Item) (interface{}, error) {
			return c.EmailTemplateRepository.GetByID(ctx, id)
		},
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (c *TemplateCache) Create(ctx context.Context, t *entity.EmailTemplate) error {
	if err := c.EmailTemplateRepository.Create(ctx, t); err != nil {
		return err
	}
	return c.invalidate(ctx, t.ID, t.Signal)
}

func (c *TemplateCache) Update(ctx context.Context, t *entity.EmailTemplate) error {
	old, err := c.EmailTemplateRepository.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if err := c.EmailTemplateRepository.Update(ctx, t); err != nil {
		return err
	}
	return c.invalidate(ctx, t.ID, old.Signal, t.Signal)
}

func (c *TemplateCache) Delete(ctx context.Context, id uuid.UUID) error {
	old, err := c.EmailTemplateRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.EmailTemplateRepository.Delete(ctx, id); err != nil {
		return err
	}
	return c.invalidate(ctx, id, old.Signal)
}

func (c *TemplateCache) invalidate(ctx context.Context, id uuid.UUID, signals ...string) error {
	keys := []string{idKey(id)}
	for _, s := range signals {
		keys = append(keys, signalKey(s))
	}
	for _, k := range keys {
		if err := c.cache.Delete(ctx, k); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			return err
		}
	}
	return nil
}

var _ repository.EmailTemplateRepository = (*TemplateCache)(nil)
