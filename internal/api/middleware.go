package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/typeset-tools/autofit/pkg/observability"
)

// hooksMiddleware forwards request and response events to the registered
// HTTP observability hooks and logs slow requests.
func (s *Server) hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		if elapsed > time.Second {
			s.logger.Warn("slow request", "method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "duration", elapsed.Round(time.Millisecond))
		}
	})
}
