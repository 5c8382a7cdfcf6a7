package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Middleware runs trace injection and rate limiting in front of a handler and
// records the request metrics.
type Middleware struct {
	limiter *IPRateLimiter
	logger  *logger_i.Logger
}

// New with a nil limiter disables rate limiting.
func New(limiter *IPRateLimiter) *Middleware {
	return &Middleware{limiter: limiter, logger: logger_i.NewLogger("middleware")}
}

func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := metrics.NewHttpStatusRecorder(w)
		re := m.processRequest(requestResponseStruct{req: r, writer: rec, logger: m.logger})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(routePattern(re.req), strconv.Itoa(rec.Status)).Inc()
	}
}

// Handler is Wrap for mounted http.Handlers.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return m.Wrap(next.ServeHTTP)
}

func (m *Middleware) processRequest(re requestResponseStruct) requestResponseStruct {
	re = injectTrace(re)
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	if m.limiter != nil {
		re = rateLimiter(re, m.limiter)
	}
	return re
}

// routePattern keeps the metric label bounded: /status/{id} rather than every id.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
