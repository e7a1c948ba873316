package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
	"ZestyBackup/internal/collector"
	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
	"ZestyBackup/internal/storage"
)

const remotePrefix = "backups/"

// Manager orchestrates archive creation, transfer and retention.
// Provider may be nil for purely local operations (Create, Restore,
// local listing).
type Manager struct {
	Config   *config.Config
	Provider storage.Provider
	Runner   execx.Runner
	Log      *zap.Logger
}

func NewManager(cfg *config.Config, provider storage.Provider, runner execx.Runner, log *zap.Logger) *Manager {
	return &Manager{Config: cfg, Provider: provider, Runner: runner, Log: log}
}

// Create builds one archive in the local backup directory and returns
// its path. On failure the partial file is left on disk for inspection.
func (m *Manager) Create(ctx context.Context, full bool) (string, error) {
	cfg := m.Config
	if err := config.ValidateBackup(&cfg.Backup); err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Backup.LocalBackupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := archive.BackupName(full, time.Now())
	path := filepath.Join(cfg.Backup.LocalBackupDir, name)
	m.Log.Info("creating backup", zap.String("file", path), zap.Bool("full", full))

	w, err := archive.Open(path, cfg.Backup.CompressionLevelOrDefault())
	if err != nil {
		return "", err
	}

	if err := m.collect(ctx, w); err != nil {
		w.Abort()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	m.Log.Info("backup created", zap.String("file", path))
	return path, nil
}

func (m *Manager) collect(ctx context.Context, w *archive.Writer) error {
	cfg := m.Config
	collectors := []collector.Collector{
		&collector.Filesystem{
			ProjectPath:     cfg.Backup.ProjectPath,
			AdditionalPaths: cfg.Backup.AdditionalPaths,
			Exclude:         archive.ExclusionSet(cfg.Backup.Exclude),
			Log:             m.Log,
		},
	}
	if cfg.System != nil {
		collectors = append(collectors,
			&collector.Systemd{
				Services: cfg.System.SystemdServices,
				Timers:   cfg.System.SystemdTimers,
				Log:      m.Log,
			},
			&collector.Presets{
				Config:      cfg.System.Presets,
				CurrentUser: cfg.CurrentUser,
				Exclude:     archive.ExclusionSet(cfg.Backup.Exclude),
				Runner:      m.Runner,
				Log:         m.Log,
			},
			&collector.Command{
				Outputs: cfg.System.CommandOutputs,
				Runner:  m.Runner,
				Log:     m.Log,
			},
		)
	}
	collectors = append(collectors, &collector.Database{
		Config:      cfg.Database,
		ProjectPath: cfg.Backup.ProjectPath,
		Runner:      m.Runner,
		Log:         m.Log,
	})

	for _, c := range collectors {
		if err := c.Collect(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// Upload ships one file, or every archive in the backup directory when
// file is empty. Keys are the file names under the backups/ prefix.
func (m *Manager) Upload(ctx context.Context, file string) error {
	if m.Provider == nil {
		return fmt.Errorf("no storage provider configured")
	}

	var files []string
	if file != "" {
		files = []string{file}
	} else {
		local, err := m.localArchives()
		if err != nil {
			return err
		}
		for _, it := range local {
			files = append(files, filepath.Join(m.Config.Backup.LocalBackupDir, it.Key))
		}
	}
	if len(files) == 0 {
		m.Log.Info("nothing to upload")
		return nil
	}

	for _, f := range files {
		key := remotePrefix + filepath.Base(f)
		m.Log.Info("uploading backup",
			zap.String("file", f), zap.String("key", key),
			zap.String("bucket", m.Provider.Bucket()))
		if err := m.Provider.Upload(ctx, key, f); err != nil {
			return fmt.Errorf("upload %s: %w", f, err)
		}
	}
	return nil
}

// List returns remote items when remote is true, otherwise an
// Item-shaped view of the local backup directory.
func (m *Manager) List(ctx context.Context, remote bool) ([]storage.Item, error) {
	if !remote {
		return m.localArchives()
	}
	if m.Provider == nil {
		return nil, fmt.Errorf("no storage provider configured")
	}
	return m.Provider.List(ctx, remotePrefix)
}

func (m *Manager) localArchives() ([]storage.Item, error) {
	dir := m.Config.Backup.LocalBackupDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var items []storage.Item
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zst") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, storage.Item{
			Key:          e.Name(),
			Size:         uint64(info.Size()),
			LastModified: info.ModTime(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

// Download fetches one remote archive into outDir and returns the
// local path. A bare file name is accepted and normalized.
func (m *Manager) Download(ctx context.Context, key, outDir string) (string, error) {
	if m.Provider == nil {
		return "", fmt.Errorf("no storage provider configured")
	}
	if !strings.HasPrefix(key, remotePrefix) {
		key = remotePrefix + key
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(outDir, strings.TrimPrefix(key, remotePrefix))
	m.Log.Info("downloading backup", zap.String("key", key), zap.String("output", out))
	if err := m.Provider.Download(ctx, key, out); err != nil {
		return "", err
	}
	return out, nil
}

// Restore unpacks an archive into target using the system tar, which
// handles zstd through its -I filter.
func (m *Manager) Restore(ctx context.Context, file, target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create restore dir: %w", err)
	}
	m.Log.Info("restoring backup", zap.String("file", file), zap.String("target", target))
	res, err := m.Runner.Run(ctx, "tar",
		[]string{"-I", "zstd -d", "-xf", file, "-C", target}, nil)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("restore failed: %s", res.Stderr)
	}
	return nil
}
