package shield

import "net/http"

// MaxBody returns middleware that limits the request body size. Media
// uploads arrive base64-encoded in JSON bodies, so the limit is generous
// (the binary equivalent of the original gateway's 50 MB cap).
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
