package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewdeck/crewdeck/pkg/httputil"
	"github.com/crewdeck/crewdeck/pkg/middleware"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/register"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// Server represents the public admission API server
type Server struct {
	router  *mux.Router
	handler http.Handler

	waitlistHandlers *WaitlistHandlers
	authHandlers     *AuthHandlers
	adminHandlers    *AdminHandlers

	metrics *observability.Metrics
	health  *observability.HealthChecker
	logger  *observability.Logger
}

// NewServer creates a new API server. The limiter and health checker may be
// nil; the matching routes degrade gracefully (no rate limiting, no
// readiness probe).
func NewServer(
	waitlistSvc *waitlist.Service,
	gate *register.Gate,
	limiter *middleware.SubmissionLimiter,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	logger *observability.Logger,
) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, io.Discard)
	}

	s := &Server{
		router:           mux.NewRouter(),
		waitlistHandlers: NewWaitlistHandlers(waitlistSvc, limiter, logger),
		authHandlers:     NewAuthHandlers(gate, logger),
		adminHandlers:    NewAdminHandlers(waitlistSvc, logger),
		metrics:          metrics,
		health:           health,
		logger:           logger,
	}

	s.setupRoutes()

	s.handler = httputil.Chain(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.MaxBytesMiddleware(1<<20),
	)(s.router)

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.waitlistHandlers.RegisterRoutes(s.router)
	s.authHandlers.RegisterRoutes(s.router)
	s.adminHandlers.RegisterRoutes(s.router)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.liveness).Methods("GET")
	s.router.HandleFunc("/readyz", s.readiness).Methods("GET")
}

func (s *Server) liveness(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		s.health.Liveness(w, r)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		s.health.Readiness(w, r)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying mux for additional route registration
func (s *Server) Router() *mux.Router {
	return s.router
}
