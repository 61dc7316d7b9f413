package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/warp/payroll-engine/logging"
)

// RequestLogger attaches a request-scoped zap logger (request_id, method,
// path) to the context and logs one line per request when it completes.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			ctx := logging.WithLogger(r.Context(), reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http request",
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// =============================================================================
// RATE LIMITING - token bucket per client IP
// =============================================================================

// IPRateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than the sweep's maxIdle are dropped, so the map tracks recent
// clients only.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*visitor
	r   rate.Limit // requests per second
	b   int        // burst
	now func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter returns a limiter allowing r requests per second with burst b.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*visitor), r: r, b: b, now: time.Now}
}

// Limiter returns the bucket for key, creating it on first use.
func (l *IPRateLimiter) Limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.ips[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Len reports how many clients currently hold a bucket.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

// Sweep drops buckets not used within maxIdle and returns how many went.
// A dropped client starts again with a full bucket.
func (l *IPRateLimiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxIdle)
	removed := 0
	for key, v := range l.ips {
		if v.lastSeen.Before(cutoff) {
			delete(l.ips, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (l *IPRateLimiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(maxIdle)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Limiter(clientIP(r)).Allow() {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error: "Too many requests",
				Code:  "rate_limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
