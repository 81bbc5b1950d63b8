package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newActivityCommand(cctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent catalogue changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := cctx.activityLog()
			if err != nil {
				return err
			}
			entries, err := log.Recent(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No activity recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					formatTimestamp(entry.Timestamp),
					string(entry.Action),
					entry.Source,
					entry.ISBN,
					entry.Title,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Action", "Source", "ISBN", "Title"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	return cmd
}

func formatTimestamp(raw string) string {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return parsed.Local().Format("2006-01-02 15:04")
}
