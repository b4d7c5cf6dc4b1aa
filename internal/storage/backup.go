package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Backup copies the database file to a timestamped path under the backup
// directory and returns that path. Run it between units of work, not inside
// one: it snapshots the file as committed on disk.
func (s *Store) Backup() (string, error) {
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(s.backupDir, fmt.Sprintf("ledger_backup_%s.db", timestamp))

	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("open database file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("copy database file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("sync backup file: %w", err)
	}

	slog.Info("Database backed up", "path", dst)
	return dst, nil
}
