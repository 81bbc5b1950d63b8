package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"oakwood/internal/catalog"
	"oakwood/internal/config"
)

func newStatsCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Books: %d\n", stats.BookCount)
				if stats.LastAdded != nil {
					fmt.Fprintf(out, "Last added: %s\n", stats.LastAdded.Format(displayDateLayout))
				}

				if len(stats.ShelfCounts) > 0 {
					rows := countRows(stats.ShelfCounts)
					fmt.Fprintln(out, renderTable(
						[]string{"Shelf", "Books"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				if len(stats.FormatCounts) > 0 {
					rows := countRows(stats.FormatCounts)
					fmt.Fprintln(out, renderTable(
						[]string{"Format", "Books"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}
}

func newShelvesCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shelves",
		Short: "List shelf names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				shelves, err := store.Shelves(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(shelves) == 0 {
					fmt.Fprintln(out, "No shelves yet")
					return nil
				}
				for _, shelf := range shelves {
					fmt.Fprintln(out, shelf)
				}
				return nil
			})
		},
	}
}

func countRows(counts map[string]int) [][]string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, fmt.Sprintf("%d", counts[name])})
	}
	return rows
}
