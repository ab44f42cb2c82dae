// internal/middleware/accesslog.go
//
// One structured log line and one latency observation per request.
//
// The line carries method, path, status, bytes, duration, and the chi
// request ID.  Query strings are never logged.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/metrics"
)

// AccessLog returns middleware that logs through log (nil uses zap.S()).
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := log
			if l == nil {
				l = zap.S()
			}
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.HTTPRequestSeconds.
				WithLabelValues(r.Method, strconv.Itoa(status)).
				Observe(elapsed.Seconds())

			l.Infow("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
