package auth

import (
	"net/http"
	"strings"
)

// TokenAuth validates the shared Bearer token on API and MCP requests.
type TokenAuth struct {
	token string
}

// New creates a Bearer token authenticator.
func New(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

// Authorized validates the Bearer token from the Authorization header.
func (a *TokenAuth) Authorized(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return false
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return false
	}

	return token == a.token
}

// SetUnauthorizedHeaders sets the standard WWW-Authenticate header.
func (a *TokenAuth) SetUnauthorizedHeaders(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
}

// Middleware rejects unauthorized requests with 401. Mount it on routes
// that require the token; /health stays outside it.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorized(r) {
			a.SetUnauthorizedHeaders(w)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
