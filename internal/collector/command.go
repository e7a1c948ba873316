package collector

import (
	"context"

	"go.uber.org/zap"

	"ZestyBackup/internal/archive"
	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
)

// Command captures the standard output of configured external commands.
// Commands run with no shell. A spawn failure or non-zero exit is logged
// and skipped; command output capture never aborts a backup.
type Command struct {
	Outputs []config.CommandOutputConfig
	Runner  execx.Runner
	Log     *zap.Logger
}

func (c *Command) Collect(ctx context.Context, w *archive.Writer) error {
	if len(c.Outputs) > 0 {
		c.Log.Info("backing up command outputs")
	}
	for _, out := range c.Outputs {
		if !out.IsEnabled() {
			continue
		}
		c.Log.Info("executing command", zap.String("command", out.Command))

		res, err := c.Runner.Run(ctx, out.Command, out.Args, nil)
		if err != nil {
			c.Log.Warn("command could not be started",
				zap.String("command", out.Command), zap.Error(err))
			continue
		}
		if res.ExitCode != 0 {
			c.Log.Warn("command failed",
				zap.String("command", out.Command),
				zap.String("stderr", string(res.Stderr)))
			continue
		}
		if err := w.AppendEntry("commands/"+out.OutputFile, res.Stdout); err != nil {
			return err
		}
		c.Log.Info("backed up command output", zap.String("output_file", out.OutputFile))
	}
	return nil
}

var _ Collector = (*Command)(nil)
