package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var cleanDryRun bool

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Report what would be deleted without deleting")
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete archives older than the retention window",
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	// The remote sweep is skipped on dry runs, so no provider is needed.
	mgr, log, err := newManager(ctx, !cleanDryRun, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := mgr.Clean(ctx, cleanDryRun); err != nil {
		return err
	}
	cmd.Println("Clean complete.")
	return nil
}
