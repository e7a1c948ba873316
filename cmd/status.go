package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration summary and backup counts",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mgr, log, err := newManager(ctx, true, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := mgr.Config
	cmd.Printf("Provider:       %s\n", cfg.Storage.Provider)
	cmd.Printf("Bucket:         %s\n", mgr.Provider.Bucket())
	cmd.Printf("Retention days: %d\n", cfg.Backup.RetentionDaysOrDefault())
	cmd.Printf("Backup dir:     %s\n", cfg.Backup.LocalBackupDir)

	local, err := mgr.List(ctx, false)
	if err != nil {
		return err
	}
	cmd.Printf("Local backups:  %d\n", len(local))

	remote, err := mgr.List(ctx, true)
	if err != nil {
		return err
	}
	cmd.Printf("Remote backups: %d\n", len(remote))
	for _, it := range remote {
		cmd.Printf("  %s\n", it.Key)
	}
	return nil
}
