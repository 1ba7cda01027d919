package flags_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/flags"
)

func newService(t *testing.T, defaults map[string]bool) (*flags.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger, _ := logtest.NewNullLogger()
	return flags.NewService(rdb, defaults, logger), mr
}

func TestEnabled_FallsBackToDefault(t *testing.T) {
	svc, _ := newService(t, map[string]bool{flags.EmailModule: true})
	ctx := context.Background()

	assert.True(t, svc.Enabled(ctx, flags.EmailModule))
	assert.False(t, svc.Enabled(ctx, "UNKNOWN"))
}

func TestSetAndReset(t *testing.T) {
	svc, mr := newService(t, map[string]bool{flags.EmailModule: true})
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, flags.EmailModule, false))
	assert.False(t, svc.Enabled(ctx, flags.EmailModule))
	assert.Equal(t, "false", mr.HGet("amy:flags", flags.EmailModule))

	require.NoError(t, svc.Reset(ctx, flags.EmailModule))
	assert.True(t, svc.Enabled(ctx, flags.EmailModule))
}

func TestEnabled_RedisDownUsesDefault(t *testing.T) {
	svc, mr := newService(t, map[string]bool{flags.EmailModule: true})
	mr.Close()

	assert.True(t, svc.Enabled(context.Background(), flags.EmailModule))
}

func TestAll(t *testing.T) {
	svc, _ := newService(t, map[string]bool{flags.EmailModule: true})
	ctx := context.Background()
	require.NoError(t, svc.Set(ctx, "BETA", true))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []flags.Flag{
		{Name: "BETA", Enabled: true, Stored: true},
		{Name: flags.EmailModule, Enabled: true},
	}, all)
}
