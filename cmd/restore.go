package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var restoreTarget string

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVar(&restoreTarget, "target", "./restored", "Directory to extract into")
}

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Extract a backup archive into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mgr, log, err := newManager(ctx, false, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := mgr.Restore(ctx, args[0], restoreTarget); err != nil {
		return err
	}
	cmd.Printf("Restored %s into %s\n", args[0], restoreTarget)
	return nil
}
