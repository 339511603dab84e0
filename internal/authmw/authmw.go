// Package authmw provides HTTP middleware for API token authentication.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIToken returns middleware that validates the request carries the
// expected token, either as "Authorization: Bearer <token>" or in the
// X-Api-Key header (what the dashboard frontend sends). Comparison uses
// constant-time equality to prevent timing side-channel attacks.
func APIToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := tokenFromRequest(r)
			if got == nil {
				http.Error(w, `{"error":"missing credentials"}`, http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) []byte {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return []byte(auth[len("Bearer "):])
	}
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return []byte(key)
	}
	return nil
}
