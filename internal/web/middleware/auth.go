package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/telepoint/emi-portal/internal/core"
)

// TokenValidator turns a bearer token into a principal.
type TokenValidator interface {
	Validate(token string) (core.Principal, error)
}

// Authenticate attaches the principal from an "Authorization: Bearer" header.
// Requests without the header pass through anonymously; a header carrying a
// bad token is rejected with 401.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				reject(w, r, "malformed authorization header")
				return
			}
			p, err := tokens.Validate(token)
			if err != nil {
				reject(w, r, err.Error())
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = p.UserID
			}
			next.ServeHTTP(w, r.WithContext(core.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole rejects callers that are anonymous (401) or hold none of roles (403).
func RequireRole(roles ...core.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := core.PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Not authenticated", "AUTH001")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			slog.Warn("auth: role denied",
				"path", r.URL.Path,
				"user_id", p.UserID,
				"role", p.Role,
			)
			writeAuthError(w, http.StatusForbidden, "Forbidden", "AUTH002")
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("auth: invalid token",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"reason", reason,
	)
	writeAuthError(w, http.StatusUnauthorized, "Not authenticated", "AUTH001")
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}
