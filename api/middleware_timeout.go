package api

import (
	"net/http"
	"time"
)

const timeoutBody = `{"Response":{"Message":"Request timeout","Error":"the request took too long to process"}}`

// TimeoutMiddleware cancels the request context after timeout and answers 503.
// Websocket upgrades are passed through untouched since they outlive any timeout.
// A zero timeout disables it.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		limited := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
