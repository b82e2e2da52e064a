package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rumclub/internal/log"
	"rumclub/internal/metrics"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

// Middleware assigns a request ID, puts a request-scoped logger in the
// context and records the request in logs and metrics when it completes.
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	metrics   *metrics.Metrics
}

// NewMiddleware creates a new trace middleware. extractIP and m may be nil.
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string, m *metrics.Metrics) *Middleware {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Middleware{
		logger:    logger.WithComponent(log.ComponentHTTP),
		extractIP: extractIP,
		metrics:   m,
	}
}

// Middleware returns HTTP middleware for request tracing. It must wrap the
// ServeMux directly so the matched route pattern can be read back.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	structured := log.NewStructuredLogger(m.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, m.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		log.FromContext(ctx).DebugContext(ctx, "HTTP request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)

		if m.metrics != nil {
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.metrics.ObserveHTTP(r.Method, route, rw.statusCode, duration)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
