package httputil

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bissquit/meetup-hub/internal/pkg/ctxlog"
	"github.com/bissquit/meetup-hub/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

// CORSMiddleware answers preflight requests and adds CORS headers for allowed origins.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (originsSet[origin] || originsSet["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// CallerIDKey stores the authenticated user id in the request context.
const CallerIDKey contextKey = "caller_id"

// TokenValidator resolves a bearer token to the id of an existing user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, err error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller id in the context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, http.StatusUnauthorized, "Token not provided")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				Error(w, http.StatusUnauthorized, "Token malformatted")
				return
			}

			userID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				ctxlog.FromContext(r.Context()).Debug("token rejected", "error", err)
				Error(w, http.StatusUnauthorized, "Token invalid")
				return
			}

			ctx := context.WithValue(r.Context(), CallerIDKey, userID)
			ctx = ctxlog.With(ctx, "user_id", userID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerID extracts the authenticated user id from context.
func CallerID(ctx context.Context) string {
	if id, ok := ctx.Value(CallerIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCallerID returns a context carrying userID as the caller.
func WithCallerID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CallerIDKey, userID)
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst per client.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*limiterEntry),
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     3 * time.Minute,
	}
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	e, ok := rl.clients[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Cleanup drops clients idle for longer than the ttl.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, e := range rl.clients {
		if time.Since(e.seen) > rl.ttl {
			delete(rl.clients, key)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

// RateLimitMiddleware limits requests per caller, falling back to the client IP
// for unauthenticated requests.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := CallerID(r.Context())
			if key == "" {
				key = clientIP(r)
			}

			if !rl.Allow(key) {
				metrics.HTTPRateLimited.Inc()
				w.Header().Set("Retry-After", "1")
				Error(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
