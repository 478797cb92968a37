package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds handler execution. WebSocket upgrades bypass it because a
// hijacked connection cannot be timed out by the standard handler.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := errorBody("REQUEST_TIMEOUT", "Request timed out.")

	return func(next http.Handler) http.Handler {
		timed := http.TimeoutHandler(next, timeout, message)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			timed.ServeHTTP(w, r)
		})
	}
}
