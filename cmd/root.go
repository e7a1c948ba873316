package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ZestyBackup/internal/backup"
	"ZestyBackup/internal/config"
	"ZestyBackup/internal/execx"
	"ZestyBackup/internal/logging"
	"ZestyBackup/internal/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "zesty-backup",
	Short: "Point-in-time backups of projects, system config and databases to cloud storage",
	Long:  "ZestyBackup archives a project directory together with systemd units, server presets, command outputs and database dumps into compressed tarballs, and ships them to one of ten storage backends with retention-based cleanup.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.toml", "Path to the configuration file")
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", cfgFile, err)
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newManager wires config, logger, runner and (optionally) the storage
// provider. Commands that only read remote state work without the
// [backup] section; requireBackup gates the local side.
func newManager(ctx context.Context, needStorage, requireBackup bool) (*backup.Manager, *zap.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if requireBackup {
		if err := config.ValidateBackup(&cfg.Backup); err != nil {
			return nil, nil, err
		}
	}

	runner := &execx.ExecRunner{}
	var provider storage.Provider
	if needStorage {
		if err := config.ValidateStorage(&cfg.Storage); err != nil {
			return nil, nil, err
		}
		provider, err = storage.New(ctx, &cfg.Storage, runner, log)
		if err != nil {
			return nil, nil, err
		}
	}

	return backup.NewManager(cfg, provider, runner, log), log, nil
}
