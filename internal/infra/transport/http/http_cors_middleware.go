package http

import (
	"net/http"
	"slices"
	"strings"
)

const (
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowedHeaders = "Authorization, Content-Type, X-Request-ID"
)

// CORSMiddleware creates middleware that adds CORS headers to every response and
// answers preflight requests. "*" in allowedOrigins allows any origin.
// Credentials are always allowed, so the request's origin is echoed rather than "*".
func CORSMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowAll := slices.Contains(allowedOrigins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		header := w.Header()

		switch {
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && (allowAll || slices.Contains(allowedOrigins, origin)):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Add("Vary", "Origin")
		default:
			next.ServeHTTP(w, r)

			return
		}

		header.Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			header.Set("Access-Control-Allow-Methods", corsAllowedMethods)

			if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" && allowAll {
				header.Set("Access-Control-Allow-Headers", strings.TrimSpace(requested))
			} else {
				header.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			}

			header.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}
