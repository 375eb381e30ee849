package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"boathouse/internal/config"
	"boathouse/internal/constants"
	fxmodules "boathouse/internal/fx"
	"boathouse/internal/middleware"
	"boathouse/internal/server"
	"boathouse/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	reconcile *service.ReconcileService,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(srv.Routes()))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	tickerStop := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", httpSrv.Addr).Msg("server starting")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()

			if cfg.ReconcileInterval > 0 {
				go runReconcileTicker(reconcile, cfg, logger, tickerStop)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			close(tickerStop)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// runReconcileTicker drives the reconciliation pass on a fixed cadence
// for deployments without an external cron trigger.
func runReconcileTicker(reconcile *service.ReconcileService, cfg *config.Config, logger zerolog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	logger.Info().Dur("interval", cfg.ReconcileInterval).Msg("reconciliation ticker started")
	for {
		select {
		case <-ticker.C:
			for _, step := range reconcile.Run(context.Background()) {
				if step.Err != nil {
					logger.Error().Err(step.Err).Str("step", step.Name).Msg("scheduled reconciliation step failed")
				}
			}
		case <-stop:
			logger.Info().Msg("reconciliation ticker stopped")
			return
		}
	}
}
