package api

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader echoes the id a request was traced under
const RequestIDHeader = "X-Request-Id"

// slowRequest is the duration above which a request is logged
const slowRequest = time.Second

// MetricsMiddleware tracks request timing and metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/api/v1/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := uuid.New().String()
		trace := &RequestTrace{
			RequestID: requestID,
			Method:    r.Method,
			Path:      path,
			StartTime: time.Now(),
			Metadata:  make(map[string]string),
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := WithRequestTrace(r.Context(), trace)
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		// a timed out handler may still be appending upstream calls
		done := snapshotTrace(ctx)
		done.EndTime = time.Now()
		done.TotalDuration = done.EndTime.Sub(done.StartTime)
		done.Status = wrapped.statusCode
		if wrapped.statusCode >= 400 {
			done.Error = http.StatusText(wrapped.statusCode)
		}
		GetMetrics().RecordTrace(done)

		if done.TotalDuration > slowRequest {
			zap.S().Warnw("slow request",
				"requestId", requestID,
				"method", r.Method,
				"path", path,
				"duration", done.TotalDuration,
				"status", done.Status,
				"upstreamCalls", len(done.Upstream),
				"upstreamTime", done.UpstreamTime)
		}
	})
}

func snapshotTrace(ctx context.Context) RequestTrace {
	rtc := getRequestTraceFromContext(ctx)
	rtc.mu.Lock()
	defer rtc.mu.Unlock()
	cp := *rtc.trace
	cp.Upstream = append([]UpstreamCall(nil), rtc.trace.Upstream...)
	return cp
}

// responseWriter wraps http.ResponseWriter to capture status code
// It implements http.Hijacker to support WebSocket upgrades
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker to support WebSocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}
