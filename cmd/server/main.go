// Command server runs the investing ledger HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockfolio/ledger/internal/app"
	"github.com/stockfolio/ledger/internal/app/httpapi"
	"github.com/stockfolio/ledger/internal/app/metrics"
	"github.com/stockfolio/ledger/internal/app/storage/postgres"
	"github.com/stockfolio/ledger/internal/config"
	"github.com/stockfolio/ledger/internal/middleware"
	"github.com/stockfolio/ledger/internal/platform/database"
	"github.com/stockfolio/ledger/internal/platform/migrations"
	"github.com/stockfolio/ledger/pkg/logger"
)

// version is stamped at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err := database.Open(ctx, database.Config{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := migrations.Apply(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		store := postgres.New(db)
		stores = app.Stores{
			Accounts:  store,
			Stocks:    store,
			Trades:    store,
			Transfers: store,
			Users:     store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("no database configured, using in-memory storage")
	}

	application := app.New(stores, log)

	apiHandler := httpapi.NewHandler(application, log, httpapi.Options{
		Version:   version,
		AuditFile: cfg.Audit.File,
	})

	root := http.NewServeMux()
	root.Handle("/metrics", metrics.Handler())
	root.Handle("/", apiHandler)

	var handler http.Handler = root
	rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	rl.StartCleanup(10 * time.Minute)
	handler = rl.Handler(handler)

	if cfg.Auth.Disabled {
		log.Warn("authentication is disabled")
	} else {
		auth := middleware.NewAuthMiddleware([]byte(cfg.Auth.JWTSecret), application.Users, log, []string{
			"/metrics",
			"/api/health/ping",
			"/api/health/version",
		})
		handler = auth.Handler(handler)
	}

	handler = middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins).Handler(handler)
	handler = middleware.NewTracingMiddleware(log).Handler(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("ledger API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
