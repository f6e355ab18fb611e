package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/webqa/internal/metrics"
	"github.com/BaSui01/webqa/types"
)

// Auth admits requests carrying either the configured X-API-Key or a valid
// bearer token issued by the token endpoint.
func Auth(apiKey, jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get("X-API-Key"); key != "" {
				if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && jwtSecret != "" {
				raw := strings.TrimPrefix(auth, "Bearer ")
				if err := VerifyToken([]byte(jwtSecret), raw); err == nil {
					next.ServeHTTP(w, r)
					return
				} else if logger != nil {
					logger.Debug("bearer token rejected", zap.Error(err))
				}
			}
			WriteError(w, types.NewError(types.ErrUnauthorized, "missing or invalid credentials"), logger)
		})
	}
}

// RateLimit applies one shared token bucket across all API callers.
func RateLimit(rps float64, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				WriteError(w, types.NewError(types.ErrInvalidRequest, "rate limit exceeded").
					WithHTTPStatus(http.StatusTooManyRequests).WithRetryable(true), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Observe records request metrics. A nil collector disables it.
func Observe(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			collector.RecordHTTPRequest(r.Method, r.URL.Path, sw.status, time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the hijacker during websocket
// upgrades.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
