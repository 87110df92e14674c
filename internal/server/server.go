// Package server exposes the record operations of a delivery stream over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/3leaps/gofirehose/internal/errors"
	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/internal/server/handlers"
	"github.com/3leaps/gofirehose/internal/server/middleware"
	"github.com/3leaps/gofirehose/pkg/firehose"
)

// Server is the HTTP relay.
type Server struct {
	host string
	port int

	client   *firehose.Client
	readOnly bool
	version  handlers.VersionResponse

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration

	router     chi.Router
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithClient sets the delivery stream client used by the record routes.
func WithClient(c *firehose.Client) Option {
	return func(s *Server) { s.client = c }
}

// WithReadOnly rejects every write route with 403 READONLY.
func WithReadOnly(ro bool) Option {
	return func(s *Server) { s.readOnly = ro }
}

// WithVersion sets the build information reported by /version and /health.
func WithVersion(version, commit, buildDate string) Option {
	return func(s *Server) {
		s.version = handlers.VersionResponse{Version: version, Commit: commit, BuildDate: buildDate}
	}
}

// WithTimeouts sets the http.Server timeouts. Zero values keep the defaults.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
		if idle > 0 {
			s.idleTimeout = idle
		}
	}
}

// New builds a server listening on host:port. Routes are registered immediately.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:         host,
		port:         port,
		version:      handlers.VersionResponse{Version: "dev"},
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		idleTimeout:  120 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logging)
	s.router.Use(middleware.Recovery)
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteEnvelope(w, http.StatusNotFound, apperrors.NewEnvelope(r,
			apperrors.CodeNotFound, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path)))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteEnvelope(w, http.StatusMethodNotAllowed, apperrors.NewEnvelope(r,
			apperrors.CodeMethodNotAllowed, fmt.Sprintf("method %s not allowed for %s", r.Method, r.URL.Path)))
	})

	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)
	s.router.Get("/version", handlers.VersionHandler(s.version))

	records := handlers.NewRecordsHandler(s.client)
	s.router.Route("/v1/streams/{name}", func(r chi.Router) {
		r.Use(middleware.ReadOnly(s.readOnly))
		r.Post("/records", records.PutRecord)
		r.Post("/batch", records.PutBatch)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	observability.CLILogger.Info("Starting HTTP relay",
		zap.String("addr", s.Addr()),
		zap.Bool("readonly", s.readOnly),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.CLILogger.Info("Shutting down HTTP relay")
	return s.httpServer.Shutdown(ctx)
}
