package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/importer"
	"oakwood/internal/logging"
	"oakwood/internal/reconcile"
)

const serviceName = "Oakwood"

const dateLayout = "2006-01-02"

// ErrReadOnly is returned for mutating calls when the server was started
// without write capability.
var ErrReadOnly = errors.New("server is read-only")

// Options configures the catalogue server.
type Options struct {
	Store       *catalog.Store
	Source      reconcile.Source
	Activity    *activity.Log
	AllowWrites bool
	Logger      *slog.Logger
}

// Server exposes the catalogue to local agent tools via JSON-RPC over a
// Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the server at the given socket path.
func NewServer(ctx context.Context, path string, opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("ipc server requires store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{
		store:       opts.Store,
		source:      opts.Source,
		activity:    opts.Activity,
		allowWrites: opts.AllowWrites,
		logger:      logger,
		ctx:         ctx,
	}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("catalogue server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	store       *catalog.Store
	source      reconcile.Source
	activity    *activity.Log
	allowWrites bool
	logger      *slog.Logger
	ctx         context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) record(action activity.Action, isbn, title string, details map[string]any) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(action, "server", isbn, title, details); err != nil {
		s.log().Warn("activity log append failed", logging.Error(err))
	}
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.Service = serviceName
	resp.AllowWrites = s.allowWrites
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	stats, err := s.store.Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.BookCount = stats.BookCount
	resp.ShelfCounts = stats.ShelfCounts
	resp.FormatCounts = stats.FormatCounts
	if stats.LastAdded != nil {
		resp.LastAdded = stats.LastAdded.Format(dateLayout)
	}
	return nil
}

func (s *service) ListBooks(req ListBooksRequest, resp *ListBooksResponse) error {
	books, err := s.store.List(s.ctx, catalog.Filter{Shelf: req.Shelf, Search: req.Search})
	if err != nil {
		return err
	}
	resp.Books = make([]Book, 0, len(books))
	for _, book := range books {
		resp.Books = append(resp.Books, fromCatalog(book))
	}
	return nil
}

func (s *service) SearchBooks(req SearchBooksRequest, resp *SearchBooksResponse) error {
	if strings.TrimSpace(req.Query) == "" {
		return errors.New("query is required")
	}
	books, err := s.store.List(s.ctx, catalog.Filter{Search: req.Query})
	if err != nil {
		return err
	}
	resp.Books = make([]Book, 0, len(books))
	for _, book := range books {
		resp.Books = append(resp.Books, fromCatalog(book))
	}
	return nil
}

func (s *service) GetBook(req GetBookRequest, resp *GetBookResponse) error {
	if strings.TrimSpace(req.ISBN) == "" {
		return errors.New("isbn is required")
	}
	book, err := s.store.GetByISBN(s.ctx, req.ISBN)
	if err != nil {
		return err
	}
	if book == nil {
		resp.Found = false
		return nil
	}
	resp.Found = true
	resp.Book = fromCatalog(book)
	return nil
}

func (s *service) ListShelves(_ ListShelvesRequest, resp *ListShelvesResponse) error {
	shelves, err := s.store.Shelves(s.ctx)
	if err != nil {
		return err
	}
	resp.Shelves = shelves
	return nil
}

func (s *service) AddBook(req AddBookRequest, resp *AddBookResponse) error {
	if !s.allowWrites {
		return ErrReadOnly
	}
	book, err := toCatalog(req.Book)
	if err != nil {
		return err
	}
	outcome, err := s.store.Upsert(s.ctx, book)
	if err != nil {
		return err
	}
	resp.Outcome = string(outcome)
	action := activity.ActionCreate
	if outcome == catalog.OutcomeUpdated {
		action = activity.ActionEdit
	}
	s.record(action, book.ISBN, book.Title, nil)
	s.log().Info("book upserted via rpc",
		logging.String("isbn", book.ISBN),
		logging.String("outcome", string(outcome)))
	return nil
}

func (s *service) UpdateBook(req UpdateBookRequest, resp *UpdateBookResponse) error {
	if !s.allowWrites {
		return ErrReadOnly
	}
	if strings.TrimSpace(req.ISBN) == "" {
		return errors.New("isbn is required")
	}
	if len(req.Fields) == 0 {
		return errors.New("no fields to update")
	}
	updates := make(map[string]any, len(req.Fields))
	for name, raw := range req.Fields {
		value, err := catalog.CoerceField(name, raw)
		if err != nil {
			return err
		}
		updates[name] = value
	}
	updated, err := s.store.UpdateFields(s.ctx, req.ISBN, updates)
	if err != nil {
		return err
	}
	resp.Updated = updated
	if updated {
		s.record(activity.ActionEdit, req.ISBN, "", map[string]any{"fields": fieldNames(req.Fields)})
	}
	return nil
}

func (s *service) VerifyBook(req VerifyBookRequest, resp *VerifyBookResponse) error {
	if !s.allowWrites {
		return ErrReadOnly
	}
	if s.source == nil {
		return errors.New("verification source not configured")
	}
	if strings.TrimSpace(req.ISBN) == "" {
		return errors.New("isbn is required")
	}

	session, err := reconcile.Begin(s.ctx, s.store, s.source, req.ISBN)
	if err != nil {
		return err
	}
	decision := reconcile.DecisionKeepLocal
	if req.AcceptRemote {
		decision = reconcile.DecisionUseRemote
	}
	if err := session.AutoResolve(decision); err != nil {
		return err
	}
	result, err := session.Commit(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = result.Updated
	resp.Skipped = result.Skipped
	resp.VerifiedAt = result.VerifiedAt.Format(time.RFC3339)
	s.record(activity.ActionVerify, req.ISBN, session.Book().Title, map[string]any{
		"updated": len(result.Updated),
		"skipped": len(result.Skipped),
	})
	s.log().Info("book verified via rpc",
		logging.String("isbn", req.ISBN),
		logging.Int("updated_fields", len(result.Updated)))
	return nil
}

func (s *service) ImportCSV(req ImportCSVRequest, resp *ImportCSVResponse) error {
	if !s.allowWrites {
		return ErrReadOnly
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("path is required")
	}
	summary, err := importer.Run(s.ctx, s.store, req.Path, nil)
	if err != nil {
		return err
	}
	resp.Inserted = summary.Inserted
	resp.Skipped = summary.Skipped
	resp.Errors = summary.Errors
	s.record(activity.ActionImport, "", "", map[string]any{
		"path":     req.Path,
		"inserted": summary.Inserted,
		"skipped":  summary.Skipped,
		"errors":   summary.Errors,
	})
	s.log().Info("csv imported via rpc",
		logging.String("path", req.Path),
		logging.Int("inserted", summary.Inserted))
	return nil
}

func fieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

func fromCatalog(book *catalog.Book) Book {
	dto := Book{
		BookID:         book.BookID,
		ISBN:           book.ISBN,
		Title:          book.Title,
		Subtitle:       book.Subtitle,
		Bookshelf:      book.Bookshelf,
		Wishlist:       book.Wishlist,
		Read:           book.Read,
		PagesRead:      book.PagesRead,
		NumberOfCopies: book.NumberOfCopies,
		Signed:         book.Signed,
		Authors:        book.Authors,
		Language:       book.Language,
		Publisher:      book.Publisher,
		PageCount:      book.PageCount,
		Description:    book.Description,
		Categories:     book.Categories,
		Format:         book.Format,
		Series:         book.Series,
		Volume:         book.Volume,
		Editors:        book.Editors,
		Translators:    book.Translators,
		Illustrators:   book.Illustrators,
		Verified:       book.Verified,
	}
	if book.DateAdded != nil {
		dto.DateAdded = book.DateAdded.Format(dateLayout)
	}
	if book.PublishedAt != nil {
		dto.PublishedAt = book.PublishedAt.Format(dateLayout)
	}
	if book.LastVerified != nil {
		dto.LastVerified = book.LastVerified.Format(dateLayout)
	}
	return dto
}

func toCatalog(dto Book) (*catalog.Book, error) {
	if strings.TrimSpace(dto.ISBN) == "" {
		return nil, catalog.ErrEmptyISBN
	}
	if strings.TrimSpace(dto.Title) == "" {
		return nil, errors.New("title is required")
	}
	book := &catalog.Book{
		BookID:         dto.BookID,
		ISBN:           strings.TrimSpace(dto.ISBN),
		Title:          dto.Title,
		Subtitle:       dto.Subtitle,
		Bookshelf:      dto.Bookshelf,
		Wishlist:       dto.Wishlist,
		Read:           dto.Read,
		PagesRead:      dto.PagesRead,
		NumberOfCopies: dto.NumberOfCopies,
		Signed:         dto.Signed,
		Authors:        dto.Authors,
		Language:       dto.Language,
		Publisher:      dto.Publisher,
		PageCount:      dto.PageCount,
		Description:    dto.Description,
		Categories:     dto.Categories,
		Format:         dto.Format,
		Series:         dto.Series,
		Volume:         dto.Volume,
		Editors:        dto.Editors,
		Translators:    dto.Translators,
		Illustrators:   dto.Illustrators,
		Verified:       dto.Verified,
	}
	var err error
	if book.DateAdded, err = parseWireDate("date_added", dto.DateAdded); err != nil {
		return nil, err
	}
	if book.PublishedAt, err = parseWireDate("published_at", dto.PublishedAt); err != nil {
		return nil, err
	}
	if book.LastVerified, err = parseWireDate("last_verified", dto.LastVerified); err != nil {
		return nil, err
	}
	return book, nil
}

func parseWireDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("field %s: expected YYYY-MM-DD date: %w", name, err)
	}
	return &parsed, nil
}
