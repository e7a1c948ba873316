package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ZestyBackup/internal/backup"
)

var (
	daemonBackupInterval time.Duration
	daemonUploadInterval time.Duration
	daemonPIDFile        string
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().DurationVar(&daemonBackupInterval, "backup-interval", 6*time.Hour, "Time between scheduled backups")
	daemonCmd.Flags().DurationVar(&daemonUploadInterval, "upload-interval", 24*time.Hour, "Time between scheduled uploads")
	daemonCmd.Flags().StringVar(&daemonPIDFile, "pid-file", "/var/run/zesty-backup.pid", "PID file path (empty to disable)")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled backups and uploads until interrupted",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr, log, err := newManager(ctx, true, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	err = mgr.RunDaemon(ctx, backup.DaemonOptions{
		BackupInterval: daemonBackupInterval,
		UploadInterval: daemonUploadInterval,
		PIDFile:        daemonPIDFile,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
