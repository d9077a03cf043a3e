package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/jobdesk/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

// Auth checks a single shared bearer token against its bcrypt hash.
type Auth struct {
	tokenHash []byte
}

// NewAuth creates the middleware. An empty hash disables authentication.
func NewAuth(tokenHash string) *Auth {
	return &Auth{tokenHash: []byte(strings.TrimSpace(tokenHash))}
}

// Enabled reports whether requests must present a token.
func (a *Auth) Enabled() bool { return len(a.tokenHash) > 0 }

// Authenticate rejects requests without a matching Bearer token.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if bcrypt.CompareHashAndPassword(a.tokenHash, []byte(token)) != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
