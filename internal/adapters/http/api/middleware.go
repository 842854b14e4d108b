package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/commitwatch/pkg/metrics"
)

// unmatchedRoute labels requests that reached a handler without a mux pattern.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request count and latency per route. Requests are
// labelled with the mux pattern that matched ("GET /submissions/{uid}"), never
// the raw path, so path parameters do not create new series.
func MetricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(time.Since(start).Microseconds())/1e3)
	}
}

// statusWriter remembers the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
