package flags

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
)

const EmailModule = emails.FlagEmailModule

const hashKey = "amy:flags"

// Service reads feature flags from a Redis hash. Flags missing from Redis
// fall back to their configured default.
type Service struct {
	rdb      redis.Cmdable
	defaults map[string]bool
	logger   *logrus.Logger
}

func NewService(rdb redis.Cmdable, defaults map[string]bool, logger *logrus.Logger) *Service {
	if defaults == nil {
		defaults = map[string]bool{}
	}
	return &Service{rdb: rdb, defaults: defaults, logger: logger}
}

// Enabled never fails: a Redis error is logged and the default returned.
func (s *Service) Enabled(ctx context.Context, name string) bool {
	v, err := s.rdb.HGet(ctx, hashKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return s.defaults[name]
	}
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithField("flag", name).Warn("read feature flag failed, using default")
		}
		return s.defaults[name]
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return s.defaults[name]
	}
	return on
}

func (s *Service) Set(ctx context.Context, name string, on bool) error {
	return s.rdb.HSet(ctx, hashKey, name, strconv.FormatBool(on)).Err()
}

// Reset drops the stored value so the default applies again.
func (s *Service) Reset(ctx context.Context, name string) error {
	return s.rdb.HDel(ctx, hashKey, name).Err()
}

type Flag struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Stored  bool   `json:"stored"`
}

// All lists defaults merged with stored values, sorted by name.
func (s *Service) All(ctx context.Context) ([]Flag, error) {
	stored, err := s.rdb.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, err
	}
	merged := map[string]Flag{}
	for name, on := range s.defaults {
		merged[name] = Flag{Name: name, Enabled: on}
	}
	for name, v := range stored {
		on, err := strconv.ParseBool(v)
		if err != nil {
			continue
		}
		merged[name] = Flag{Name: name, Enabled: on, Stored: true}
	}
	out := make([]Flag, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
