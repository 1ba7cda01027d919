package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/oksasatya/amy-emails/internal/interface/middleware"
	"github.com/oksasatya/amy-emails/internal/metrics"
	"github.com/oksasatya/amy-emails/internal/router"
	"github.com/oksasatya/amy-emails/pkg/validation"
)

func serveCommand(a *app) *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := a.cfg, a.logger
			gin.SetMode(cfg.GinMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !skipMigrations {
				if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger, 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return err
				}
			}
			if err := a.connect(ctx); err != nil {
				return err
			}
			metrics.Init()
			validation.Init()

			// Gin engine and global middleware
			r := gin.New()
			r.Use(gin.Recovery())
			r.Use(middleware.RequestIDMiddleware())
			r.Use(middleware.RealIP())
			r.Use(cors.New(cors.Config{
				AllowOrigins:     cfg.CORSOrigins(),
				AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
				ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
			}))
			if cfg.HTTPLogEnabled {
				r.Use(gin.Logger())
			}

			reg := router.NewRegistry(r)
			reg.Logger = logger
			router.InitModules(reg)
			reg.RegisterAll()

			srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
			errc := make(chan error, 1)
			go func() {
				logger.Infof("server starting on :%s", cfg.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info("shutting down server")

			ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctxShutdown); err != nil {
				return err
			}
			logger.Info("server exited properly")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start-up")
	return cmd
}
