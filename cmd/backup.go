package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var backupFull bool

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().BoolVar(&backupFull, "full", false, "Mark the archive as a full backup")
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup archive in the local backup directory",
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mgr, log, err := newManager(ctx, false, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	path, err := mgr.Create(ctx, backupFull)
	if err != nil {
		return err
	}
	cmd.Printf("Backup created: %s\n", path)
	return nil
}
