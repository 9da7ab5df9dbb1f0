// Package server provides the HTTP surface of the heat-map service.
//
// The transport is deliberately thin: handlers decode and validate at
// the boundary, then delegate to the storage engine and the read-side
// reconstruction. All domain decisions live below this package.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AJ-SIM/heat-map/config"
	"github.com/AJ-SIM/heat-map/internal/archive"
	"github.com/AJ-SIM/heat-map/internal/logging"
	"github.com/AJ-SIM/heat-map/internal/storage"
)

var log = logging.Component("server")

// AppName identifies the service in the health response.
const AppName = "heat_map_api"

// Config holds server configuration.
type Config struct {
	// Store is the storage engine (required).
	Store *storage.Store

	// Archive serves snapshot queries (optional).
	Archive *archive.Service

	// Listen is the address to listen on (e.g., "0.0.0.0:8000").
	Listen string

	// DefaultWindowMins is the display window when a viewer does not
	// request one.
	DefaultWindowMins int

	// MaxBodyBytes limits ingest request bodies.
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server is the heat-map HTTP server.
type Server struct {
	cfg     *Config
	store   *storage.Store
	archive *archive.Service

	httpServer *http.Server
	requestSeq atomic.Uint64
}

// New creates a new server.
func New(cfg *Config) *Server {
	// Apply defaults
	if cfg.Listen == "" {
		cfg.Listen = config.DefaultListenAddress
	}
	if cfg.DefaultWindowMins == 0 {
		cfg.DefaultWindowMins = config.DefaultWindowMins
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = config.DefaultShutdownTimeout
	}

	return &Server{
		cfg:     cfg,
		store:   cfg.Store,
		archive: cfg.Archive,
	}
}

// Handler returns the full route table, wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("GET /data/{device}/clean.csv", s.handleCleanCSV)
	mux.HandleFunc("GET /data/{device}/raw.csv", s.handleRawCSV)
	mux.HandleFunc("GET /data/{device}/names.json", s.handleNames)
	mux.HandleFunc("GET /data/{device}/window.json", s.handleWindow)
	mux.HandleFunc("GET /data/{device}/stats.json", s.handleStats)
	mux.HandleFunc("GET /data/{device}/archive.json", s.handleArchive)

	return s.logRequests(mux)
}

// Run starts the server and blocks until the context is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: config.DefaultReadHeaderTimeout,
	}

	log.Info("listening", "address", s.cfg.Listen)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Info("shutdown complete")
	return err
}

// reqLog returns the server logger enriched with the request-scoped ids
// carried by ctx (request id from the middleware, device from the
// handler).
func reqLog(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx).With("component", "server")
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests assigns each request an id and logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seq := s.requestSeq.Add(1)
		ctx := logging.ContextWithRequestID(r.Context(), seq)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Debug("request",
			"request_id", seq,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
