package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies. The auth forms are a few hundred
// bytes.
const DefaultMaxBodyBytes = 64 << 10

// LimitBody caps every request body at n bytes. Mount it ahead of anything
// that parses forms, CSRF included, so the cap holds for the first read.
func LimitBody(n int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
