package shield

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware applying a process-wide token bucket. The
// gateway fronts a single session, so a global limiter (not per-client) is
// the right granularity: the page behind it serializes work anyway.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
