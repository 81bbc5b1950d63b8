package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound marks a genuine "no record for this ISBN" response so callers
// can distinguish it from transport failures worth retrying.
var ErrNotFound = errors.New("book not found")

// Candidate carries the verifiable fields returned by the Books API. Fields
// are pointers so a missing value is distinguishable from an empty one; only
// present fields participate in reconciliation.
type Candidate struct {
	Title       *string
	Authors     *string
	PageCount   *int
	Publisher   *string
	PublishedAt *time.Time
	Categories  *string
	Description *string
}

// Client provides access to the Open Library Books API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an Open Library client.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("open library base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type apiBook struct {
	Title         string `json:"title"`
	NumberOfPages int    `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	Excerpts []struct {
		Text string `json:"text"`
	} `json:"excerpts"`
}

// Lookup fetches bibliographic data for an ISBN. A missing record yields an
// error wrapping ErrNotFound; transport and decode failures do not, so the
// caller can tell "retry" from "accept absence".
func (c *Client) Lookup(ctx context.Context, isbn string) (*Candidate, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, errors.New("isbn required")
	}

	endpoint := fmt.Sprintf(
		"%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data",
		c.baseURL,
		url.QueryEscape(isbn),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open library request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open library status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var payload map[string]apiBook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	data, ok := payload["ISBN:"+isbn]
	if !ok {
		return nil, fmt.Errorf("isbn %s: %w", isbn, ErrNotFound)
	}

	return candidateFromAPI(data), nil
}

func candidateFromAPI(data apiBook) *Candidate {
	candidate := &Candidate{}
	if data.Title != "" {
		candidate.Title = ptr(data.Title)
	}
	if data.NumberOfPages > 0 {
		candidate.PageCount = ptr(data.NumberOfPages)
	}
	if joined := joinNames(len(data.Authors), func(i int) string { return data.Authors[i].Name }); joined != "" {
		candidate.Authors = ptr(joined)
	}
	// First publisher only; the comparison field is single-valued.
	for _, p := range data.Publishers {
		if p.Name != "" {
			candidate.Publisher = ptr(p.Name)
			break
		}
	}
	if joined := joinNames(len(data.Subjects), func(i int) string { return data.Subjects[i].Name }); joined != "" {
		candidate.Categories = ptr(joined)
	}
	for _, e := range data.Excerpts {
		if e.Text != "" {
			candidate.Description = ptr(e.Text)
			break
		}
	}
	if published := ParsePublishDate(data.PublishDate); published != nil {
		candidate.PublishedAt = published
	}
	return candidate
}

func joinNames(count int, name func(int) string) string {
	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if v := strings.TrimSpace(name(i)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func ptr[T any](v T) *T {
	return &v
}
