package backup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DaemonOptions controls the long-running scheduler.
type DaemonOptions struct {
	BackupInterval time.Duration
	UploadInterval time.Duration
	PIDFile        string
}

// RunDaemon runs periodic backups and uploads until ctx is cancelled.
// Failures are logged and the loop keeps going; a broken provider at
// 3am should not stop local backups from accumulating.
func (m *Manager) RunDaemon(ctx context.Context, opts DaemonOptions) error {
	if opts.PIDFile != "" {
		pid := strconv.Itoa(os.Getpid())
		if err := os.WriteFile(opts.PIDFile, []byte(pid), 0o644); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer os.Remove(opts.PIDFile)
	}

	m.Log.Info("daemon started",
		zap.Duration("backup_interval", opts.BackupInterval),
		zap.Duration("upload_interval", opts.UploadInterval),
		zap.Int("pid", os.Getpid()))

	// Upload whatever is already on disk before the first tick; the
	// first scheduled backup still waits a full interval.
	if err := m.Upload(ctx, ""); err != nil {
		m.Log.Error("initial upload failed", zap.Error(err))
	}

	backupTicker := time.NewTicker(opts.BackupInterval)
	defer backupTicker.Stop()
	uploadTicker := time.NewTicker(opts.UploadInterval)
	defer uploadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Log.Info("daemon stopping")
			return ctx.Err()
		case <-backupTicker.C:
			// The daemon only creates and ships archives; deletion
			// stays an explicit operator action through clean.
			if _, err := m.Create(ctx, false); err != nil {
				m.Log.Error("scheduled backup failed", zap.Error(err))
			}
		case <-uploadTicker.C:
			if err := m.Upload(ctx, ""); err != nil {
				m.Log.Error("scheduled upload failed", zap.Error(err))
			}
		}
	}
}
