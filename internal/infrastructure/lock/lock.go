package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// Locker is a single-key Redis lock. value identifies the holder so only
// the holder can release it.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{client: client, key: key, value: value}
}

// ForEmail guards one scheduled email between the dispatcher and workers.
func ForEmail(client redis.UniversalClient, id uuid.UUID, owner string) *Locker {
	return NewLocker(client, "amy:scheduled_email:lock:"+id.String(), owner)
}

// ForDispatcher elects a single dispatcher across replicas.
func ForDispatcher(client redis.UniversalClient, owner string) *Locker {
	return NewLocker(client, "amy:dispatcher:lock", owner)
}

func (l *Locker) Key() string { return l.key }

func (l *Locker) Lock(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.value, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is already held", ErrLockNotAcquired, l.key)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	res, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if res == int64(0) {
		return fmt.Errorf("unlock %s: lock expired or held by someone else", l.key)
	}
	return nil
}
