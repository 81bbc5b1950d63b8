package ipc

// PingRequest checks that the server is alive.
type PingRequest struct{}

// PingResponse reports server identity and write capability.
type PingResponse struct {
	Service     string `json:"service"`
	AllowWrites bool   `json:"allow_writes"`
}

// Book is the wire representation of a catalogue record. Dates travel as
// ISO strings so callers never depend on Go time encoding.
type Book struct {
	BookID         string `json:"book_id,omitempty"`
	ISBN           string `json:"isbn"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle,omitempty"`
	Bookshelf      string `json:"bookshelf,omitempty"`
	DateAdded      string `json:"date_added,omitempty"`
	Wishlist       bool   `json:"wishlist"`
	Read           bool   `json:"read"`
	PagesRead      int    `json:"pages_read,omitempty"`
	NumberOfCopies int    `json:"number_of_copies,omitempty"`
	Signed         bool   `json:"signed"`
	Authors        string `json:"authors,omitempty"`
	Language       string `json:"language,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
	Publisher      string `json:"publisher,omitempty"`
	PageCount      int    `json:"page_count,omitempty"`
	Description    string `json:"description,omitempty"`
	Categories     string `json:"categories,omitempty"`
	Format         string `json:"format,omitempty"`
	Series         string `json:"series,omitempty"`
	Volume         string `json:"volume,omitempty"`
	Editors        string `json:"editors,omitempty"`
	Translators    string `json:"translators,omitempty"`
	Illustrators   string `json:"illustrators,omitempty"`
	Verified       bool   `json:"verified"`
	LastVerified   string `json:"last_verified,omitempty"`
}

// ListBooksRequest filters the listing by shelf and/or a search term.
type ListBooksRequest struct {
	Shelf  string `json:"shelf"`
	Search string `json:"search"`
}

// ListBooksResponse contains matching records ordered by title.
type ListBooksResponse struct {
	Books []Book `json:"books"`
}

// SearchBooksRequest matches titles, authors, and ISBNs against a term.
type SearchBooksRequest struct {
	Query string `json:"query"`
}

// SearchBooksResponse contains matching records ordered by title.
type SearchBooksResponse struct {
	Books []Book `json:"books"`
}

// GetBookRequest fetches a single record by ISBN.
type GetBookRequest struct {
	ISBN string `json:"isbn"`
}

// GetBookResponse contains the record, or Found=false when absent.
type GetBookResponse struct {
	Found bool `json:"found"`
	Book  Book `json:"book"`
}

// ListShelvesRequest fetches the distinct shelf names.
type ListShelvesRequest struct{}

// ListShelvesResponse contains shelf names in alphabetical order.
type ListShelvesResponse struct {
	Shelves []string `json:"shelves"`
}

// StatsRequest fetches collection aggregates.
type StatsRequest struct{}

// StatsResponse reports collection aggregates.
type StatsResponse struct {
	BookCount    int            `json:"book_count"`
	ShelfCounts  map[string]int `json:"shelf_counts"`
	FormatCounts map[string]int `json:"format_counts"`
	LastAdded    string         `json:"last_added,omitempty"`
}

// AddBookRequest inserts or updates a record keyed by ISBN.
type AddBookRequest struct {
	Book Book `json:"book"`
}

// AddBookResponse reports whether the record was inserted or updated.
type AddBookResponse struct {
	Outcome string `json:"outcome"`
}

// UpdateBookRequest overwrites specific columns of an existing record.
// Field names use the column spelling; values are parsed server-side.
type UpdateBookRequest struct {
	ISBN   string            `json:"isbn"`
	Fields map[string]string `json:"fields"`
}

// UpdateBookResponse reports whether a row matched.
type UpdateBookResponse struct {
	Updated bool `json:"updated"`
}

// VerifyBookRequest reconciles a record against the verification source.
// AcceptRemote applies the candidate's values for every differing field;
// otherwise local values are kept and the record is only marked verified.
type VerifyBookRequest struct {
	ISBN         string `json:"isbn"`
	AcceptRemote bool   `json:"accept_remote"`
}

// VerifyBookResponse reports the commit outcome.
type VerifyBookResponse struct {
	Updated    []string `json:"updated"`
	Skipped    []string `json:"skipped"`
	VerifiedAt string   `json:"verified_at"`
}

// ImportCSVRequest runs an import of a Bookshelf export on the server side.
type ImportCSVRequest struct {
	Path string `json:"path"`
}

// ImportCSVResponse reports per-outcome row counts.
type ImportCSVResponse struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}
