package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/config"
)

const displayDateLayout = "2006-01-02"

func newListCommand(cctx *commandContext) *cobra.Command {
	var shelf string
	var recent bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if recent && shelf != "" {
				return errors.New("--recent and --shelf are mutually exclusive")
			}
			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				var (
					books []*catalog.Book
					err   error
				)
				if recent {
					books, err = store.ListByDateAdded(cmd.Context())
				} else {
					books, err = store.List(cmd.Context(), catalog.Filter{Shelf: shelf})
				}
				if err != nil {
					return err
				}
				return printBookTable(cmd, books)
			})
		},
	}

	cmd.Flags().StringVar(&shelf, "shelf", "", "Only list books on this shelf")
	cmd.Flags().BoolVar(&recent, "recent", false, "Order by date added, newest first")
	return cmd
}

func newSearchCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search titles, authors, and ISBNs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				books, err := store.List(cmd.Context(), catalog.Filter{Search: args[0]})
				if err != nil {
					return err
				}
				if len(books) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No books match %q\n", args[0])
					return nil
				}
				return printBookTable(cmd, books)
			})
		},
	}
}

func newShowCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <isbn>",
		Short: "Show one catalogue entry in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				book, err := store.GetByISBN(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if book == nil {
					return fmt.Errorf("no book with ISBN %s", args[0])
				}
				printBookDetail(cmd, book)
				return nil
			})
		},
	}
}

func newAddCommand(cctx *commandContext) *cobra.Command {
	var (
		isbn      string
		title     string
		subtitle  string
		authors   string
		shelf     string
		publisher string
		pages     int
		format    string
		language  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book, or update it if the ISBN already exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(isbn) == "" {
				return errors.New("--isbn is required")
			}
			if strings.TrimSpace(title) == "" {
				return errors.New("--title is required")
			}
			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				book := &catalog.Book{
					ISBN:           strings.TrimSpace(isbn),
					Title:          title,
					Subtitle:       subtitle,
					Authors:        authors,
					Bookshelf:      shelf,
					Publisher:      publisher,
					PageCount:      pages,
					Format:         format,
					Language:       language,
					NumberOfCopies: 1,
				}
				outcome, err := store.Upsert(cmd.Context(), book)
				if err != nil {
					return err
				}

				action := activity.ActionCreate
				label := "Added"
				if outcome == catalog.OutcomeUpdated {
					action = activity.ActionEdit
					label = "Updated"
				}
				recordActivity(cctx, cmd, action, book.ISBN, book.Title, nil)

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", label, book.Title, book.ISBN)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN (required)")
	cmd.Flags().StringVar(&title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "Subtitle")
	cmd.Flags().StringVar(&authors, "authors", "", "Comma-separated authors")
	cmd.Flags().StringVar(&shelf, "shelf", "", "Bookshelf name")
	cmd.Flags().StringVar(&publisher, "publisher", "", "Publisher")
	cmd.Flags().IntVar(&pages, "pages", 0, "Page count")
	cmd.Flags().StringVar(&format, "format", "", "Physical format")
	cmd.Flags().StringVar(&language, "language", "", "Language")
	return cmd
}

func newEditCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <isbn> <field>=<value> [<field>=<value> ...]",
		Short: "Overwrite specific fields of an existing entry",
		Long: "Overwrite specific fields of an existing entry. Field names use the " +
			"column spelling, e.g. page_count, published_at, read. Dates are " +
			"YYYY-MM-DD; booleans accept true/false/yes/no.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			isbn := args[0]
			updates := make(map[string]any, len(args)-1)
			names := make([]string, 0, len(args)-1)
			for _, pair := range args[1:] {
				name, raw, found := strings.Cut(pair, "=")
				if !found {
					return fmt.Errorf("expected <field>=<value>, got %q", pair)
				}
				value, err := catalog.CoerceField(name, raw)
				if err != nil {
					return err
				}
				updates[name] = value
				names = append(names, name)
			}

			return cctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				updated, err := store.UpdateFields(cmd.Context(), isbn, updates)
				if err != nil {
					return err
				}
				if !updated {
					return fmt.Errorf("no book with ISBN %s", isbn)
				}
				recordActivity(cctx, cmd, activity.ActionEdit, isbn, "", map[string]any{"fields": names})
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", isbn, strings.Join(names, ", "))
				return nil
			})
		},
	}
}

func printBookTable(cmd *cobra.Command, books []*catalog.Book) error {
	out := cmd.OutOrStdout()
	if len(books) == 0 {
		fmt.Fprintln(out, "Catalogue is empty")
		return nil
	}

	rows := make([][]string, 0, len(books))
	for _, book := range books {
		rows = append(rows, []string{
			book.ISBN,
			book.DisplayTitle(48),
			book.Authors,
			book.Bookshelf,
			formatCount(book.PageCount),
			yesNo(book.Verified),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ISBN", "Title", "Authors", "Shelf", "Pages", "Verified"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d book(s)\n", len(books))
	return nil
}

func printBookDetail(cmd *cobra.Command, book *catalog.Book) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(book.FullTitle(), colorize) {
		fmt.Fprintln(out, line)
	}

	detail := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "  %-18s %s\n", label+":", value)
	}

	detail("ISBN", book.ISBN)
	detail("Authors", book.Authors)
	detail("Shelf", book.Bookshelf)
	detail("Publisher", book.Publisher)
	detail("Published", formatDate(book.PublishedAt))
	detail("Pages", formatCount(book.PageCount))
	detail("Language", book.Language)
	detail("Format", book.Format)
	detail("Categories", book.Categories)
	detail("Series", seriesLabel(book))
	detail("Editors", book.Editors)
	detail("Translators", book.Translators)
	detail("Illustrators", book.Illustrators)
	detail("Added", formatDate(book.DateAdded))
	detail("Read", yesNo(book.Read))
	detail("Wishlist", yesNo(book.Wishlist))
	detail("Signed", yesNo(book.Signed))
	if book.Verified {
		detail("Verified", formatDate(book.LastVerified))
	} else {
		detail("Verified", "no")
	}
	if strings.TrimSpace(book.Description) != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, book.Description)
	}
}

func seriesLabel(book *catalog.Book) string {
	if book.Series == "" {
		return ""
	}
	if book.Volume != "" {
		return fmt.Sprintf("%s, vol. %s", book.Series, book.Volume)
	}
	return book.Series
}

func formatCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(displayDateLayout)
}

func recordActivity(cctx *commandContext, cmd *cobra.Command, action activity.Action, isbn, title string, details map[string]any) {
	log, err := cctx.activityLog()
	if err != nil {
		return
	}
	if err := log.Record(action, "cli", isbn, title, details); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: activity log: %v\n", err)
	}
}
