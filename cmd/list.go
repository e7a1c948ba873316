package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var listRemote bool

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listRemote, "remote", false, "List archives in the storage backend instead of the local directory")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup archives",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mgr, log, err := newManager(ctx, listRemote, !listRemote)
	if err != nil {
		return err
	}
	defer log.Sync()

	items, err := mgr.List(ctx, listRemote)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		cmd.Println("No backups found.")
		return nil
	}
	for _, it := range items {
		when := "-"
		if !it.LastModified.IsZero() {
			when = it.LastModified.Format("2006-01-02 15:04:05")
		}
		cmd.Printf("%-50s %12d  %s\n", it.Key, it.Size, when)
	}
	return nil
}
