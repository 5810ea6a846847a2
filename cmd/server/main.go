// Package main is the entry point for the progress engine server.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: attempt records, streak math, no external dependencies
// - Application: commands and queries over the attempt store
// - Infrastructure: PostgreSQL persistence, event bus, metrics
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lectura-hub/progress-engine/config"
	"github.com/lectura-hub/progress-engine/internal/application"
	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/messaging"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/metrics"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/persistence/memory"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/persistence/postgres"
	httpserver "github.com/lectura-hub/progress-engine/internal/interface/http"
	"github.com/lectura-hub/progress-engine/pkg/logger"
	"github.com/lectura-hub/progress-engine/pkg/retry"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. LOAD CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. SETUP LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting progress engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("timezone", cfg.App.Location.String()),
		logger.String("store_driver", cfg.Database.Driver),
	)

	// One-shot migration commands run and exit without starting the server:
	//   server migrate [up|down|status]
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		action := "up"
		if len(os.Args) > 2 {
			action = os.Args[2]
		}
		return runMigrate(ctx, cfg, log, action)
	}

	buckets := timeutil.NewBucketer(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. INITIALIZE ATTEMPT STORE
	// ─────────────────────────────────────────────────────────────────────────
	var store attempt.Store
	var healthChecker httpserver.HealthChecker

	if cfg.Database.Driver == config.StoreDriverPostgres {
		log.Info("connecting to database...")

		var dbConn *postgres.Connection
		connect := func(ctx context.Context) error {
			var connErr error
			dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
			return connErr
		}
		if err := retry.DatabaseConnectRetrier().Do(ctx, connect); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()
		log.Info("database connection established")

		// ─────────────────────────────────────────────────────────────────────
		// 4. RUN MIGRATIONS
		// ─────────────────────────────────────────────────────────────────────
		if cfg.Database.RunMigrations {
			log.Info("running database migrations...")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			status, err := migrator.Status(ctx)
			if err != nil {
				log.Warn("failed to get migration status", logger.Err(err))
			} else {
				appliedCount := 0
				for _, m := range status {
					if m.IsApplied {
						appliedCount++
					}
				}
				log.Info("migrations completed",
					logger.Int("applied", appliedCount),
					logger.Int("total", len(status)),
				)
			}
		}

		store = postgres.NewAttemptRepository(dbConn, buckets)
		healthChecker = dbConn
	} else {
		log.Warn("using in-memory attempt store, data is not persisted")
		store = memory.NewAttemptStore(buckets)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. INITIALIZE EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REGISTER EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Observability.MetricsEnabled {
		collector := metrics.NewEventMetricsCollector()
		if err := collector.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	auditLog := log.With(logger.Component("audit"))
	err = eventBus.Subscribe(shared.EventAttemptRecorded, func(e shared.Event) error {
		if recorded, ok := e.(shared.AttemptRecordedEvent); ok {
			auditLog.Info("attempt recorded",
				logger.AttemptID(recorded.AggregateID()),
				logger.UserID(recorded.UserID),
				logger.Category(recorded.Category),
				logger.Percent(recorded.Percent),
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register audit handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. INITIALIZE APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	app := application.NewFacade(store, eventBus, buckets)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. CREATE HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.DefaultLocale = cfg.App.DefaultLocale

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		App:           app,
		Logger:        log,
		HealthChecker: healthChecker,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. START SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("progress engine is running", logger.String("http_address", server.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", logger.String("timeout", cfg.App.ShutdownTimeout.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Event bus and database close via defers.
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// runMigrate executes a one-shot migration action against the configured
// database.
func runMigrate(ctx context.Context, cfg *config.Config, log *logger.Logger, action string) error {
	if cfg.Database.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrations require the postgres driver")
	}

	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	migrator := postgres.NewMigrator(dbConn)

	switch action {
	case "up":
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info("migrations applied")
	case "down":
		if err := migrator.Rollback(ctx); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		log.Info("last migration rolled back")
	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		for _, m := range status {
			log.Info("migration",
				logger.Int("version", m.Version),
				logger.String("name", m.Name),
				logger.Bool("applied", m.IsApplied),
			)
		}
	default:
		return fmt.Errorf("unknown migrate action %q (expected up, down or status)", action)
	}

	return nil
}

// setupLogger configures structured logging from the observability settings.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}

	return logger.New(opts)
}
