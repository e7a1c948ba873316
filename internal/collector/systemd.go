package collector

import (
	"context"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
)

const systemdUnitDir = "/etc/systemd/system"

// Systemd captures the unit files of configured services and timers.
// Units that do not exist on disk are silently omitted.
type Systemd struct {
	Services []string
	Timers   []string
	Log      *zap.Logger
}

func (c *Systemd) Collect(ctx context.Context, w *archive.Writer) error {
	if len(c.Services) > 0 {
		c.Log.Info("backing up systemd services")
	}
	for _, s := range c.Services {
		if err := w.AppendFile(systemdUnitDir+"/"+s, "systemd/services/"+s); err != nil {
			return err
		}
	}
	for _, t := range c.Timers {
		if err := w.AppendFile(systemdUnitDir+"/"+t, "systemd/timers/"+t); err != nil {
			return err
		}
	}
	return nil
}

var _ Collector = (*Systemd)(nil)
