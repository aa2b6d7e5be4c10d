// Package server exposes a catalog over HTTP with JSON bodies.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/alexhholmes/shelf"
)

// Catalog is the subset of *shelf.DB the handlers use.
type Catalog interface {
	Insert(b shelf.Book) error
	Books() []shelf.Book
	Get(title, isbn13 string) (shelf.Book, error)
	Search(f shelf.Filters, page, pageSize int) (shelf.SearchPage, error)
	SearchPrefix(prefix string) ([]shelf.Book, error)
	Stats() shelf.Stats
}

// Config holds HTTP server settings.
type Config struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodyBytes    int64
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		MaxBodyBytes:    1 << 20,
	}
}

// Option adjusts a Server.
type Option func(*Server)

// WithConfig replaces the default Config.
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the request and lifecycle logger.
func WithLogger(l shelf.Logger) Option {
	return func(s *Server) {
		if l == nil {
			l = shelf.DiscardLogger{}
		}
		s.logger = l
	}
}

// Server serves the catalog API.
type Server struct {
	config  Config
	catalog Catalog
	logger  shelf.Logger
	handler http.Handler
}

// New builds a server for cat.
func New(cat Catalog, opts ...Option) *Server {
	s := &Server{
		config:  DefaultConfig(),
		catalog: cat,
		logger:  shelf.DiscardLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = chain(mux,
		LoggingMiddleware(s.logger),
		RecoveryMiddleware(s.logger),
		CORSMiddleware(s.config.CORSOrigins),
	)
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("POST /books", s.handleInsert)
	mux.HandleFunc("GET /books", s.handleList)
	mux.HandleFunc("GET /books/search", s.handleSearch)
	mux.HandleFunc("GET /books/prefix", s.handlePrefix)
	mux.HandleFunc("GET /books/lookup", s.handleLookup)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.logger.Info("HTTP server started", "address", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
