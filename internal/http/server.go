// Package http serves the projection JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"forecast/internal/log"
	"forecast/internal/middleware/ratelimit"
	"forecast/internal/middleware/security"
	"forecast/internal/middleware/trace"
	"forecast/internal/projection"
	"forecast/internal/scenarios"
)

// ProjectionAPI is the part of the projection service the API exposes.
type ProjectionAPI interface {
	GenerateProjections(ctx context.Context, scenarioID int, opts projection.Options) (scenarios.Bundle, error)
	GetProjections(ctx context.Context, scenarioID int) (scenarios.Bundle, error)
	ClearProjections(ctx context.Context, scenarioID int) error
}

// Options configure optional parts of the server.
type Options struct {
	Logger *log.Logger
	// Lister enables GET /scenarios.
	Lister scenarios.ScenarioLister
	// Ready backs /readyz; nil always reports ready.
	Ready func(ctx context.Context) error
	// RequestsPerMinute bounds POSTs per client; zero uses the limiter default.
	RequestsPerMinute int
	TrustedProxies    []string
}

type Server struct {
	http.Server
	projections ProjectionAPI
	lister      scenarios.ScenarioLister
	ready       func(ctx context.Context) error

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, projections ProjectionAPI, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		projections: projections,
		lister:      opts.Lister,
		ready:       opts.Ready,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector:    detector,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /scenarios", s.handleListScenarios)
	mux.HandleFunc("GET /scenarios/{id}/projections", s.handleGetProjections)
	mux.Handle("POST /scenarios/{id}/projections",
		s.limiter.Middleware(detector.ExtractClientIP, s.rateLimited)(http.HandlerFunc(s.handleGenerateProjections)))
	mux.HandleFunc("DELETE /scenarios/{id}/projections", s.handleClearProjections)

	// Outermost first: logger, request ID, request-scoped logger, access log,
	// headers, probe detection.
	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.AccessLog(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = trace.RequestID(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(r, http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			ErrorResponse(r, http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
