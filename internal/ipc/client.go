package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the catalogue server.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks that the server is responding.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Oakwood.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats retrieves collection aggregates.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.client.Call("Oakwood.Stats", StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBooks returns records matching the filter.
func (c *Client) ListBooks(req ListBooksRequest) (*ListBooksResponse, error) {
	var resp ListBooksResponse
	if err := c.client.Call("Oakwood.ListBooks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchBooks matches titles, authors, and ISBNs against a term.
func (c *Client) SearchBooks(query string) (*SearchBooksResponse, error) {
	var resp SearchBooksResponse
	if err := c.client.Call("Oakwood.SearchBooks", SearchBooksRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBook fetches a single record by ISBN.
func (c *Client) GetBook(isbn string) (*GetBookResponse, error) {
	var resp GetBookResponse
	if err := c.client.Call("Oakwood.GetBook", GetBookRequest{ISBN: isbn}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListShelves returns distinct shelf names.
func (c *Client) ListShelves() (*ListShelvesResponse, error) {
	var resp ListShelvesResponse
	if err := c.client.Call("Oakwood.ListShelves", ListShelvesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddBook inserts or updates a record.
func (c *Client) AddBook(book Book) (*AddBookResponse, error) {
	var resp AddBookResponse
	if err := c.client.Call("Oakwood.AddBook", AddBookRequest{Book: book}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateBook overwrites specific fields of an existing record.
func (c *Client) UpdateBook(isbn string, fields map[string]string) (*UpdateBookResponse, error) {
	var resp UpdateBookResponse
	req := UpdateBookRequest{ISBN: isbn, Fields: fields}
	if err := c.client.Call("Oakwood.UpdateBook", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyBook reconciles a record against the verification source.
func (c *Client) VerifyBook(req VerifyBookRequest) (*VerifyBookResponse, error) {
	var resp VerifyBookResponse
	if err := c.client.Call("Oakwood.VerifyBook", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImportCSV imports a Bookshelf export on the server side.
func (c *Client) ImportCSV(path string) (*ImportCSVResponse, error) {
	var resp ImportCSVResponse
	if err := c.client.Call("Oakwood.ImportCSV", ImportCSVRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
