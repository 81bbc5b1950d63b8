package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/config"
	"oakwood/internal/openlibrary"
	"oakwood/internal/reconcile"
)

func newVerifyCommand(cctx *commandContext) *cobra.Command {
	var acceptAll bool
	var keepLocal bool

	cmd := &cobra.Command{
		Use:   "verify <isbn>",
		Short: "Verify an entry against Open Library",
		Long: "Compare an entry field by field against Open Library and resolve " +
			"each difference. Nothing is written until every difference is decided; " +
			"quitting mid-way leaves the record untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if acceptAll && keepLocal {
				return errors.New("--yes and --keep-local are mutually exclusive")
			}
			isbn := args[0]

			source, err := cctx.lookupClient()
			if err != nil {
				return err
			}

			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				session, err := reconcile.Begin(cmd.Context(), store, source, isbn)
				if err != nil {
					if errors.Is(err, openlibrary.ErrNotFound) {
						return fmt.Errorf("open library has no record for ISBN %s", isbn)
					}
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Verifying "+session.Book().FullTitle(), colorize) {
					fmt.Fprintln(out, line)
				}

				switch {
				case acceptAll:
					if err := session.AutoResolve(reconcile.DecisionUseRemote); err != nil {
						return err
					}
				case keepLocal:
					if err := session.AutoResolve(reconcile.DecisionKeepLocal); err != nil {
						return err
					}
				default:
					done, err := resolveInteractively(cmd, session, colorize)
					if err != nil {
						return err
					}
					if !done {
						session.Cancel()
						fmt.Fprintln(out, "Verification cancelled; nothing was changed")
						return nil
					}
				}

				result, err := session.Commit(cmd.Context())
				if err != nil {
					return err
				}

				recordActivity(cctx, cmd, activity.ActionVerify, isbn, session.Book().Title, map[string]any{
					"updated": len(result.Updated),
					"skipped": len(result.Skipped),
				})

				if len(result.Updated) > 0 {
					fmt.Fprintf(out, "Updated: %s\n", strings.Join(result.Updated, ", "))
				}
				if len(result.Skipped) > 0 {
					fmt.Fprintf(out, "Kept local: %s\n", strings.Join(result.Skipped, ", "))
				}
				if len(result.Updated) == 0 && len(result.Skipped) == 0 {
					fmt.Fprintln(out, "All fields match Open Library")
				}
				fmt.Fprintf(out, "%s\n", colorText("Marked verified", ansiGreen, colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&acceptAll, "yes", "y", false, "Accept the Open Library value for every difference")
	cmd.Flags().BoolVar(&keepLocal, "keep-local", false, "Keep local values and only mark the entry verified")
	return cmd
}

// resolveInteractively prompts for each differing field. Returns false when
// the user quit before resolving everything.
func resolveInteractively(cmd *cobra.Command, session *reconcile.Session, colorize bool) (bool, error) {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		diff, ok := session.Current()
		if !ok {
			return true, nil
		}
		position, total := session.Position()

		fmt.Fprintf(out, "\n%s (%d of %d)\n", colorText(diff.Label, ansiYellow, colorize), position, total)
		fmt.Fprintf(out, "  local:  %s\n", displayValue(diff.Local))
		fmt.Fprintf(out, "  remote: %s\n", displayValue(diff.Remote))

		decision, quit, err := promptDecision(out, scanner)
		if err != nil {
			return false, err
		}
		if quit {
			return false, nil
		}
		if err := session.Resolve(decision); err != nil {
			return false, err
		}
	}
}

func promptDecision(out io.Writer, scanner *bufio.Scanner) (reconcile.Decision, bool, error) {
	for {
		fmt.Fprintf(out, "  [1] keep local  [2] use remote  [s] skip  [q] quit: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", false, err
			}
			return "", true, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "1":
			return reconcile.DecisionKeepLocal, false, nil
		case "2":
			return reconcile.DecisionUseRemote, false, nil
		case "s":
			return reconcile.DecisionSkip, false, nil
		case "q":
			return "", true, nil
		}
	}
}

func displayValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(empty)"
	}
	return value
}
