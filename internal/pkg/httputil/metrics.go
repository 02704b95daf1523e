package httputil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bissquit/meetup-hub/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware records request duration labelled by route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// route pattern, not the raw path, to keep label cardinality bounded
		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method,
			route,
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())
	})
}
