// Package cli provides common process initialization for cmd/ledger:
// logging, .env loading, configuration, and opening the store.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	"ledger/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the process default.
func SetupLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the ledger store, running schema setup and default
// category bootstrap. Exits the process on failure.
func InitStore(logger *slog.Logger, cfg *config.Config) *storage.Store {
	store, err := storage.Open(cfg.DBPath, cfg.BackupDir)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	return store
}
