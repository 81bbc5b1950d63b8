package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/config"
	"oakwood/internal/importer"
)

func newImportCommand(cctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import a Bookshelf CSV export",
		Long: "Import a Bookshelf CSV export into the catalogue. Rows whose ISBN " +
			"already exists are skipped; import never overwrites existing data. " +
			"Re-running an import is safe.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				onRow := func(row importer.Row) {
					switch row.Outcome {
					case importer.RowInserted:
						if verbose {
							fmt.Fprintf(out, "  added   %s %s\n", row.ISBN, row.Title)
						}
					case importer.RowSkippedDuplicate:
						if verbose {
							fmt.Fprintf(out, "  skipped %s %s (already in catalogue)\n", row.ISBN, row.Title)
						}
					case importer.RowError:
						fmt.Fprintf(out, "  line %d: %s\n", row.Line, row.Reason)
					}
				}

				summary, err := importer.Run(cmd.Context(), store, path, onRow)
				if err != nil {
					return err
				}

				recordActivity(cctx, cmd, activity.ActionImport, "", "", map[string]any{
					"path":     path,
					"inserted": summary.Inserted,
					"skipped":  summary.Skipped,
					"errors":   summary.Errors,
				})

				fmt.Fprintf(out, "Imported %d book(s), skipped %d duplicate(s), %d error(s)\n",
					summary.Inserted, summary.Skipped, summary.Errors)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Report every row, not just errors")
	return cmd
}
