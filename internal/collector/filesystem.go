package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
)

// Filesystem collects the primary project tree and any configured
// additional paths. A missing additional path is logged and skipped; a
// failure inside the project tree aborts the backup.
type Filesystem struct {
	ProjectPath     string
	AdditionalPaths []string
	Exclude         archive.ExclusionSet
	Log             *zap.Logger
}

func (c *Filesystem) Collect(ctx context.Context, w *archive.Writer) error {
	c.Log.Info("backing up project", zap.String("path", c.ProjectPath))
	if err := w.AppendTree(c.ProjectPath, "project", c.Exclude); err != nil {
		return fmt.Errorf("project directory: %w", err)
	}

	for _, p := range c.AdditionalPaths {
		info, err := os.Stat(p)
		if err != nil {
			c.Log.Warn("path does not exist", zap.String("path", p))
			continue
		}
		c.Log.Info("backing up", zap.String("path", p))
		if info.IsDir() {
			if err := w.AppendTree(p, "system/"+filepath.Base(p), c.Exclude); err != nil {
				return fmt.Errorf("additional directory %s: %w", p, err)
			}
			continue
		}
		if err := c.appendPlainFile(w, p); err != nil {
			return err
		}
	}
	return nil
}

// appendPlainFile mirrors the directory-less branch: an unopenable file is
// skipped, a read failure propagates.
func (c *Filesystem) appendPlainFile(w *archive.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", p, err)
	}
	return w.AppendEntry("system/"+filepath.Base(p), data)
}

var _ Collector = (*Filesystem)(nil)
