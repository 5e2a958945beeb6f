package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finanzbuch/internal/cache"
	"finanzbuch/internal/investing"
	applog "finanzbuch/internal/log"
	"finanzbuch/internal/middleware/ratelimit"
	"finanzbuch/internal/middleware/security"
	"finanzbuch/internal/middleware/trace"
	"finanzbuch/internal/services"
)

// Options tune the server. The zero value is usable.
type Options struct {
	RequestsPerMinute int
	// Ready reports whether the server can take traffic. Nil means always.
	Ready func(context.Context) error
	// Logger is placed in every request context. Nil uses slog.Default.
	Logger *applog.Logger
}

type Server struct {
	http.Server
	depot *services.DepotService
	ready func(context.Context) error

	ledgerCache  *cache.RevisionCache[investing.Ledger]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer builds the JSON API over depot and starts its background
// cleanup routines. Shutdown stops them.
func NewServer(addr string, depot *services.DepotService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: slog.Default().Handler()})
	}

	ledgers := cache.NewLRUCache[investing.Ledger](8, 10*time.Minute)
	manager := cache.NewManager()
	manager.Register(ledgers)
	manager.StartCleanup(5 * time.Minute)

	detector := security.NewDetector()
	s := &Server{
		depot:        depot,
		ready:        opts.Ready,
		ledgerCache:  cache.NewRevisionCache[investing.Ledger](ledgers),
		cacheManager: manager,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/entries", s.handleListEntries).Methods(http.MethodGet)
	r.HandleFunc("/entries", s.handleCreateEntry).Methods(http.MethodPost)
	r.HandleFunc("/entries/{key}", s.handleGetEntry).Methods(http.MethodGet)
	r.HandleFunc("/entries/{key}", s.handleRemoveEntry).Methods(http.MethodDelete)
	r.HandleFunc("/entries/{key}/sections", s.handleAddSection).Methods(http.MethodPost)
	r.HandleFunc("/entries/{key}/sections/{start}", s.handleRemoveSection).Methods(http.MethodDelete)
	r.HandleFunc("/entries/{key}/years", s.handleAddYear).Methods(http.MethodPost)
	r.HandleFunc("/entries/{key}/history/{year}/{month}", s.handleSetMonthValue).Methods(http.MethodPut)
	r.HandleFunc("/entries/{key}/planned", s.handlePlanned).Methods(http.MethodGet)
	r.HandleFunc("/depot/uniform", s.handleUniform).Methods(http.MethodPost)
	r.HandleFunc("/depot/span", s.handleSpan).Methods(http.MethodGet)
	r.HandleFunc("/depot/ledger", s.handleLedger).Methods(http.MethodGet)
	r.HandleFunc("/comparisons", s.handleAddComparison).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// probes bypass the rate limit
	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(r)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/healthz" || req.URL.Path == "/readyz" {
			r.ServeHTTP(w, req)
			return
		}
		limited.ServeHTTP(w, req)
	})
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the background routines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
		m := s.tracer.GetMetrics()
		slog.Info("HTTP server stopping",
			applog.FieldComponent, applog.ComponentHTTP,
			"total_requests", m.TotalRequests,
			"average_response_time", m.AverageResponseTime.String(),
			"suspicious_requests", s.detector.GetMetrics().SuspiciousRequests,
			"rate_limited_clients", s.rateLimiter.ActiveClients())
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "revision": s.depot.Revision()})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}
