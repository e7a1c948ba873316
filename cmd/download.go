package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var downloadOutput string

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVar(&downloadOutput, "output", "./restored", "Directory to download into")
}

var downloadCmd = &cobra.Command{
	Use:   "download <key>",
	Short: "Download one archive from the storage backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mgr, log, err := newManager(ctx, true, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	path, err := mgr.Download(ctx, args[0], downloadOutput)
	if err != nil {
		return err
	}
	cmd.Printf("Downloaded to %s\n", path)
	return nil
}
