// Package server implements the masonry HTTP API.
//
// The API has two halves. POST /v1/layout runs the batch pipeline and
// returns a board with rendered artifacts. The /v1/sessions routes hold a
// live masonry view per client: the client reports its container size and
// scroll offset, and the server answers with the tiles to draw, pulling
// more items from the session's source as the client nears the end of the
// track.
//
//	POST   /v1/layout
//	POST   /v1/sessions
//	GET    /v1/sessions/{id}/visible
//	PUT    /v1/sessions/{id}/viewport
//	PUT    /v1/sessions/{id}/items
//	DELETE /v1/sessions/{id}
//	GET    /healthz
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/masonry/pkg/masonry"
	"github.com/matzehuels/masonry/pkg/observability"
	"github.com/matzehuels/masonry/pkg/pipeline"
	"github.com/matzehuels/masonry/pkg/session"
)

// Server serves the API.
type Server struct {
	runner   *pipeline.Runner
	sessions *session.MemoryStore
	layout   masonry.Config
	logger   *log.Logger

	batchSize   int
	allowFiles  bool
	requestTime time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLayoutConfig sets the base configuration of session views. Requests
// may override individual fields.
func WithLayoutConfig(cfg masonry.Config) Option {
	return func(s *Server) { s.layout = cfg }
}

// WithBatchSize sets the number of items fetched per page for sessions
// backed by a source.
func WithBatchSize(n int) Option {
	return func(s *Server) { s.batchSize = n }
}

// WithFileSources allows requests to name local item files. They are
// refused by default so clients cannot read the server's filesystem.
func WithFileSources() Option {
	return func(s *Server) { s.allowFiles = true }
}

// WithRequestTimeout bounds the time spent on one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTime = d }
}

// New creates a server. The runner and store are owned by the caller.
func New(runner *pipeline.Runner, sessions *session.MemoryStore, opts ...Option) *Server {
	s := &Server{
		runner:      runner,
		sessions:    sessions,
		layout:      masonry.DefaultConfig(),
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		requestTime: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTime))
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/visible", s.handleVisible)
			r.Put("/viewport", s.handleViewport)
			r.Put("/items", s.handleItems)
			r.Delete("/", s.handleDeleteSession)
		})
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)

		s.logger.Info("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
