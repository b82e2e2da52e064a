package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"rumclub/internal/auth"
	"rumclub/internal/log"
	"rumclub/internal/metrics"
	"rumclub/internal/middleware/ratelimit"
	"rumclub/internal/middleware/security"
	"rumclub/internal/middleware/trace"
	"rumclub/internal/services"
)

// Deps are the collaborators of the API server.
type Deps struct {
	Ledger  *services.LedgerService
	Gate    *auth.PasswordGate
	Tokens  *auth.JWTManager
	Metrics *metrics.Metrics
	Logger  *log.Logger

	// LoginRatePerMinute bounds login attempts per client IP.
	LoginRatePerMinute int
	// TrustedProxies are extra CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	ledger       *services.LedgerService
	gate         *auth.PasswordGate
	tokens       *auth.JWTManager
	metrics      *metrics.Metrics
	logger       *log.Logger
	detector     *security.Detector
	loginLimiter *ratelimit.Limiter
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	s := &Server{
		ledger:   deps.Ledger,
		gate:     deps.Gate,
		tokens:   deps.Tokens,
		metrics:  deps.Metrics,
		logger:   logger,
		detector: detector,
		loginLimiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests: deps.LoginRatePerMinute,
			Window:   time.Minute,
		}),
		now: time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, detector.ExtractClientIP, deps.Metrics)

	// trace must see the request the mux matched, so nothing between them
	// may replace *http.Request.
	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

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

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	limitLogin := s.loginLimiter.Middleware(s.detector.ExtractClientIP, s.onLoginLimited)
	mux.Handle("POST /api/login", limitLogin(http.HandlerFunc(s.handleLogin)))

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireAuth(h))
	}

	// Reads
	api("GET /api/ledger", s.handleLedger)
	api("GET /api/summary", s.handleSummary)
	api("GET /api/samples/{month}", s.handleSampleSummary)
	api("GET /api/tastings/{month}", s.handleTastingSummary)
	api("GET /api/members/{member}/statement", s.handleStatement)
	api("GET /api/export.zip", s.handleExportZip)
	api("GET /api/export.xlsx", s.handleExportWorkbook)

	// Samples and dues
	api("PUT /api/samples/{month}", s.handleUpdateSample)
	api("PUT /api/samples/{month}/orders/{member}", s.handleSetOrder)
	api("PUT /api/dues/{member}", s.handleSetDues)

	// Tastings
	api("PUT /api/tastings/{month}", s.handleSetTastingCost)
	api("PUT /api/tastings/{month}/participants/{member}", s.handleSetParticipant)
	api("POST /api/tastings/{month}/guests", s.handleAddGuest)
	api("PUT /api/tastings/{month}/guests/{index}", s.handleUpdateGuest)
	api("DELETE /api/tastings/{month}/guests/{index}", s.handleRemoveGuest)

	// Library, balance and roster
	api("PUT /api/archive/{month}", s.handleUpdateArchive)
	api("PUT /api/balance", s.handleSetBalance)
	api("POST /api/members", s.handleAddMember)
	api("POST /api/members/import", s.handleImportMembers)
	api("DELETE /api/members/{member}", s.handleRemoveMember)

	// Year-end
	api("POST /api/year/reset", s.handleResetYear)
	api("POST /api/year/roll-balance", s.handleRollBalance)
	api("POST /api/year/start", s.handleStartNewYear)
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, auth.ErrMissingToken)
			return
		}
		if _, err := s.tokens.Validate(token); err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				DebugContext(r.Context(), "Rejected token", log.FieldError, err)
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func (s *Server) onLoginLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).
		WarnContext(r.Context(), "Login rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "too many login attempts, try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the ledger is served from saved data.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	report := s.ledger.LoadReport()
	NewJSONResponse().JSON(map[string]any{
		"status":   "ready",
		"revision": s.ledger.Revision(),
		"fallback": report.Fallback,
	}).Write(w)
}

// Shutdown stops the login limiter then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
