package middleware

import (
	"net/http"
)

// CORS headers sent with every response.
const (
	AllowOrigin  = "*"
	AllowHeaders = "Content-Type, Authorization"
	AllowMethods = "GET,POST,PUT,DELETE,OPTIONS"
)

// CORS adds cross-origin headers and answers preflight requests with 204.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", AllowOrigin)
		h.Set("Access-Control-Allow-Headers", AllowHeaders)
		h.Set("Access-Control-Allow-Methods", AllowMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
