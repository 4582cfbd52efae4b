package server

import (
	"context"
	"net/http"
	"time"

	"netrunner/domain/catalog"
	"netrunner/domain/entities"
	"netrunner/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Executor is the application surface the HTTP transport drives
type Executor interface {
	ExecuteCommand(ctx context.Context, playerID, commandID, traceID string) (*entities.Outcome, error)
	PurchaseUnlock(ctx context.Context, playerID, commandID string) (*entities.CommandUnlock, error)
	EnsurePlayer(ctx context.Context, playerID, handle string) (*entities.Player, error)
	GetProfile(ctx context.Context, playerID string) (*entities.Player, entities.UnlockSet, error)
	Catalog() *catalog.Catalog
}

// Server is the HTTP transport for the command execution API
type Server struct {
	executor Executor
	auth     *Authenticator
	httpSrv  *http.Server
}

// New creates a server listening on addr, verifying session tokens with secret
func New(addr, secret string, executor Executor) *Server {
	s := &Server{
		executor: executor,
		auth:     NewAuthenticator(secret),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /v1/catalog", s.protected("/v1/catalog", s.handleCatalog))
	mux.Handle("GET /v1/profile", s.protected("/v1/profile", s.handleGetProfile))
	mux.Handle("POST /v1/profile", s.protected("/v1/profile", s.handleCreateProfile))
	mux.Handle("POST /v1/command/execute", s.protected("/v1/command/execute", s.handleExecute))
	mux.Handle("POST /v1/unlock", s.protected("/v1/unlock", s.handleUnlock))

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler exposes the routing tree, primarily for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start blocks serving HTTP until Shutdown is called or the listener fails
func (s *Server) Start() error {
	log.WithField("addr", s.httpSrv.Addr).Info("Starting HTTP server")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down HTTP server")
	return s.httpSrv.Shutdown(ctx)
}

// protected wraps a handler with authentication and request metrics
func (s *Server) protected(route string, handler http.HandlerFunc) http.Handler {
	return withMetrics(route, s.auth.Middleware(handler))
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withMetrics(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if metrics := observability.GetMetrics(); metrics != nil {
			metrics.RecordHTTPRequest(route, recorder.status, time.Since(start))
		}
	})
}
