package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"crea-bienestar/pkg/logger"
)

// Logger returns a middleware that logs requests. Server errors are
// raised to error level so failed turns stand out in the stream, and
// the routed resource id (conversation or alert) is attached when the
// path carries one.
func Logger(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				evt := log.Info()
				if ww.Status() >= http.StatusInternalServerError {
					evt = log.Error()
				}
				evt = evt.
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context()))
				// Route params are populated by the time the handler
				// has run, the route context is shared in place.
				if id := chi.URLParam(r, "id"); id != "" {
					evt = evt.Str("resource_id", id)
				}
				evt.Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
