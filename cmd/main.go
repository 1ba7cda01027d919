package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/amy-emails/config"
	"github.com/oksasatya/amy-emails/internal/container"
	pginfra "github.com/oksasatya/amy-emails/internal/infrastructure/postgres"
	"github.com/oksasatya/amy-emails/pkg/helpers"
)

// app holds what every subcommand shares once the root pre-run has loaded
// the configuration.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// connect opens Postgres, Redis, GCS and Elasticsearch and registers them
// with the container. GCS is skipped when no bucket is configured.
func (a *app) connect(ctx context.Context) error {
	cfg := a.cfg
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	container.SetPGPool(pool)

	rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	container.SetRedis(rdb)

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return fmt.Errorf("init GCS client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = gcs.Close() })
		container.SetGCS(gcs)
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			a.logger.WithError(err).Warn("elasticsearch disabled")
		} else {
			container.SetES(es)
		}
	}
	if err := container.GetServices().Index.EnsureIndex(ctx); err != nil {
		a.logger.WithError(err).Warn("ensure search index")
	}
	return nil
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "amy-emails",
		Short:         "Scheduled email engine for AMY",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
			container.SetConfig(cfg)
			container.SetLogger(a.logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.close() },
	}

	root.AddCommand(
		serveCommand(a),
		migrateCommand(a),
		dispatchCommand(a),
		workerCommand(a),
		seedCommand(a),
		backfillCommand(a),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
