// Package api serves notes over HTTP using chi.
package api

import (
	"net/http"
	"strings"
)

// Methods advertised to browsers and in 405 responses.
const (
	corsMethods  = "GET,PUT,DELETE,OPTIONS"
	allowMethods = "GET,PUT,DELETE"
	corsHeaders  = "Content-Type"
)

// CORSMiddleware sets CORS headers on every response and answers OPTIONS
// preflight requests with 204 before any other handler runs. extraHeaders
// are allowed in addition to Content-Type.
func CORSMiddleware(origin string, extraHeaders ...string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	headers := strings.Join(append([]string{corsHeaders}, extraHeaders...), ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", headers)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// methodNotAllowed answers unsupported methods on a known route.
func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", allowMethods)
	writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
}
