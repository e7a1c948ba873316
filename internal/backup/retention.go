package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Clean removes local and remote archives older than the retention
// window. retention_days 0 means everything goes. Dry runs only report
// local candidates; the remote sweep needs a provider round trip and is
// skipped entirely.
func (m *Manager) Clean(ctx context.Context, dryRun bool) error {
	days := m.Config.Backup.RetentionDaysOrDefault()
	cutoff := time.Now().AddDate(0, 0, -days)
	m.Log.Info("cleaning old backups",
		zap.Int("retention_days", days), zap.Bool("dry_run", dryRun))

	if err := m.cleanLocal(cutoff, dryRun); err != nil {
		return err
	}
	if dryRun || m.Provider == nil {
		return nil
	}
	return m.cleanRemote(ctx, time.Now().AddDate(0, 0, -days))
}

func (m *Manager) cleanLocal(cutoff time.Time, dryRun bool) error {
	dir := m.Config.Backup.LocalBackupDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read backup dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zst") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if dryRun {
			m.Log.Info("would delete local backup", zap.String("file", path))
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		m.Log.Info("deleted local backup", zap.String("file", path))
	}
	return nil
}

func (m *Manager) cleanRemote(ctx context.Context, cutoff time.Time) error {
	items, err := m.Provider.List(ctx, remotePrefix)
	if err != nil {
		return fmt.Errorf("list remote backups: %w", err)
	}
	for _, it := range items {
		// Some backends cannot report modification times; never delete
		// on a missing timestamp.
		if it.LastModified.IsZero() || !it.LastModified.Before(cutoff) {
			continue
		}
		if err := m.Provider.Delete(ctx, it.Key); err != nil {
			return fmt.Errorf("delete remote %s: %w", it.Key, err)
		}
		m.Log.Info("deleted remote backup", zap.String("key", it.Key))
	}
	return nil
}
