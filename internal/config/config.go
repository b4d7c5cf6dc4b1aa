package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	// Database
	DBPath    string
	BackupDir string

	// Logging
	LogLevel slog.Level
}

// Load reads configuration from the environment, falling back to a ledger
// directory under the user's home. The backup directory defaults to a
// sibling of the database file.
func Load() *Config {
	dbPath := getEnv("LEDGER_DB_PATH", defaultDBPath())

	return &Config{
		DBPath:    dbPath,
		BackupDir: getEnv("LEDGER_BACKUP_DIR", filepath.Join(filepath.Dir(dbPath), "backups")),
		LogLevel:  getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if c.BackupDir == "" {
		errs = append(errs, "backup directory cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "ledger.db")
	}
	return filepath.Join(home, ".ledger", "ledger.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return defaultValue
}
