// Package cli provides the initialization steps shared by cmd/gastos and
// cmd/gastos-cli.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gastos/internal/backend"
	"gastos/internal/config"
	"gastos/internal/ledger"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// SetupLogger builds the application logger at the given LOG_LEVEL and sets
// it as the slog default.
func SetupLogger(out io.Writer, level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Runtime bundles what both binaries need after startup.
type Runtime struct {
	Service *ledger.Service
	View    *config.View
	backend *backend.BackendResult
}

// Close releases the storage backend.
func (rt *Runtime) Close() error {
	if rt.backend == nil {
		return nil
	}
	return rt.backend.Close()
}

// OpenService creates the configured backend, wraps it in the ledger
// document repository and loads the persisted ledger.
func OpenService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	view, err := config.LoadView(cfg.ViewConfigFile)
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	repo := storage.NewDocumentRepository(result.Store, cfg.LedgerKey)
	svc := ledger.NewService(repo, ledger.Options{
		StrictLoad: cfg.LedgerStrictLoad,
		Logger:     logger,
	})
	if err := svc.Load(ctx); err != nil {
		_ = result.Close()
		return nil, err
	}

	logger.Info("Ledger store ready",
		log.FieldBackend, backendCfg.Type.String(),
		log.FieldStorageKey, repo.Key())
	return &Runtime{Service: svc, View: view, backend: result}, nil
}

// ShutdownContext returns a context that is cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
