// Package server implements an in-memory placement service speaking the
// REST API the CLI client consumes. It backs the `placementctl serve`
// command and the functional test suite; the real placement service is an
// external collaborator with the same surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/serializer"
	"github.com/placement-tools/placementctl/pkg/version"
)

// Server serves the placement API over HTTP.
type Server struct {
	name    string
	version string
	cfg     *Config
	store   *Store
	limiter *rate.Limiter

	mu    sync.RWMutex
	ready bool
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the service name reported by the default route.
func WithName(name string) Option {
	return func(s *Server) { s.name = name }
}

// WithVersion sets the service version reported by the default route.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithConfig overrides the default configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// WithStore uses a pre-populated store, e.g. one loaded from a seed file.
func WithStore(store *Store) Option {
	return func(s *Server) { s.store = store }
}

// New creates a Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		name:    "placement",
		version: "dev",
		cfg:     DefaultConfig(),
		store:   NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = rate.NewLimiter(s.cfg.RateLimit, s.cfg.RateLimitBurst)
	return s
}

// Store exposes the underlying state, used by tests to arrange fixtures.
func (s *Server) Store() *Store { return s.store }

// Handler returns the fully wired HTTP handler. Tests mount it on an
// httptest server instead of binding a port.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails. Shutdown is graceful within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("placement server listening", "addr", addr)
		s.setReady(true)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down placement server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.setReady(false)
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Default handler
	mux.HandleFunc("/", s.handleDefault)

	// System endpoints (no rate limiting)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Placement API endpoints with middleware
	api := func(h http.HandlerFunc) http.HandlerFunc { return s.withMiddleware(h) }

	mux.HandleFunc("GET /resource_providers", api(s.handleListProviders))
	mux.HandleFunc("POST /resource_providers", api(s.handleCreateProvider))
	mux.HandleFunc("GET /resource_providers/{uuid}/aggregates", api(s.handleGetAggregates))
	mux.HandleFunc("PUT /resource_providers/{uuid}/aggregates", api(s.handleSetAggregates))
	mux.HandleFunc("GET /resource_providers/{uuid}/inventories", api(s.handleListInventories))
	mux.HandleFunc("PUT /resource_providers/{uuid}/inventories", api(s.handleReplaceInventories))
	mux.HandleFunc("DELETE /resource_providers/{uuid}/inventories", api(s.handleDeleteAllInventories))
	mux.HandleFunc("GET /resource_providers/{uuid}/inventories/{class}", api(s.handleGetInventory))
	mux.HandleFunc("PUT /resource_providers/{uuid}/inventories/{class}", api(s.handleUpdateInventory))
	mux.HandleFunc("DELETE /resource_providers/{uuid}/inventories/{class}", api(s.handleDeleteInventory))
	mux.HandleFunc("GET /resource_classes", api(s.handleListClasses))
	mux.HandleFunc("POST /resource_classes", api(s.handleCreateClass))
	mux.HandleFunc("PUT /allocations/{consumer}", api(s.handleSetAllocations))

	return mux
}

// withMiddleware wraps API handlers with request ID assignment, rate
// limiting, microversion negotiation, logging and metrics.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		r = r.WithContext(ctx)

		if !s.limiter.Allow() {
			WriteErrorCode(w, r, placementerrors.ErrCodeRateLimitExceeded, "rate limit exceeded")
			return
		}

		v, ok := negotiateMicroversion(r)
		if !ok {
			WriteErrorCode(w, r, placementerrors.ErrCodeVersionRequirement,
				fmt.Sprintf("unsupported microversion requested; supported range is %s to %s",
					version.Min, version.Max))
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), contextKeyMicroversion, v))
		w.Header().Set(VersionHeader, versionService+" "+v.String())

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(r.Method, fmt.Sprintf("%d", rec.status)).Inc()

		slog.Debug("handled placement request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"microversion", v.String(),
			"request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	resp := struct {
		Name       string   `json:"name" yaml:"name"`
		Version    string   `json:"version" yaml:"version"`
		MinVersion string   `json:"min_microversion" yaml:"min_microversion"`
		MaxVersion string   `json:"max_microversion" yaml:"max_microversion"`
		Ready      bool     `json:"ready" yaml:"ready"`
		Timestamp  string   `json:"timestamp" yaml:"timestamp"`
		Routes     []string `json:"routes" yaml:"routes"`
	}{
		Name:       s.name,
		Version:    s.version,
		MinVersion: version.Min.String(),
		MaxVersion: version.Max.String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Routes: []string{
			"GET|POST /resource_providers",
			"GET|PUT /resource_providers/{uuid}/aggregates",
			"GET|PUT|DELETE /resource_providers/{uuid}/inventories",
			"GET|PUT|DELETE /resource_providers/{uuid}/inventories/{class}",
			"GET|POST /resource_classes",
			"PUT /allocations/{consumer}",
		},
	}

	s.mu.RLock()
	resp.Ready = s.ready
	s.mu.RUnlock()

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status" yaml:"status"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	if !ready {
		serializer.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Timestamp: time.Now(),
			Reason:    "service is initializing",
		})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
	})
}
