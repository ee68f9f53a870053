package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete change records older than the retention window",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.ChangeLog.Purge(context.Background(), retentionDays)
			if err != nil {
				fatal("purge change log", err)
			}
			output(map[string]int{"deleted": deleted}, strconv.Itoa(deleted))
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Retention window in days (server default when omitted)")

	return cmd
}
