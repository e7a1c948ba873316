package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var uploadFile string

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFile, "file", "", "Upload only this archive instead of every local one")
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload local backup archives to the configured storage",
	RunE:  runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mgr, log, err := newManager(ctx, true, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := mgr.Upload(ctx, uploadFile); err != nil {
		return err
	}
	cmd.Println("Upload complete.")
	return nil
}
