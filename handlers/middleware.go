package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/satheeshds/repairbook/identity"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

const (
	// TokenHeader carries the session token on API requests.
	TokenHeader = "X-Session-Token"
	// TokenCookie is read when TokenHeader is absent.
	TokenCookie = "session_token"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// BasicAuth is middleware that enforces HTTP Basic Authentication.
func BasicAuth(user, pass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// If no credentials are configured, skip auth
		if user == "" && pass == "" {
			slog.Warn("AUTH_USER and AUTH_PASS not set, API is unauthenticated")
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || u != user || p != pass {
				w.Header().Set("WWW-Authenticate", `Basic realm="repairbook"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Identify resolves the caller's session token to a user id and stores it
// on the request context. Requests without a token share the anonymous
// bucket.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			if c, err := r.Cookie(TokenCookie); err == nil {
				token = c.Value
			}
		}
		ctx := identity.WithUser(r.Context(), identity.Resolve(token))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	return identity.UserFrom(r.Context())
}
