package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/datasource"
	"github.com/desertthunder/ytplay/internal/queue"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route is one method and path pattern served by a [Handler].
type Route struct {
	Name    string
	Method  string
	Path    string // gorilla/mux path template
	Handler http.HandlerFunc
}

// Handler groups related endpoints.
type Handler interface {
	Routes() []Route // Routes returns the endpoints this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a Handler
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Opener opens byte ranges for locators, usually a [*datasource.Source].
type Opener interface {
	Open(ctx context.Context, spec datasource.DataSpec) (*datasource.Stream, error)
}

// ServerOpts configures a [Server].
type ServerOpts struct {
	Addr   string // listen address (default: 127.0.0.1:3000)
	Source Opener
	Logger *log.Logger
}

// Server is the HTTP face of the playback engine: it streams locators through the
// data source and exposes the active queue.
type Server struct {
	addr   string
	router *MuxRouter
	logger *log.Logger
	queue  atomic.Pointer[queue.Queue]
}

// New creates a Server with the stream, queue, health and metrics routes registered.
func New(opts ServerOpts) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:3000"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		addr:   opts.Addr,
		router: NewMuxRouter(),
		logger: opts.Logger.WithPrefix("server"),
	}

	s.router.Use(Logging(s.logger), Metrics(DefaultMetricsConfig()))
	s.router.Handler(&StreamHandler{source: opts.Source, queue: s.Queue, logger: s.logger})
	s.router.Handler(&SystemHandler{})
	return s
}

// SetQueue replaces the active queue. A nil queue clears it.
func (s *Server) SetQueue(q *queue.Queue) {
	s.queue.Store(q)
}

// Queue returns the active queue or nil.
func (s *Server) Queue() *queue.Queue {
	return s.queue.Load()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
