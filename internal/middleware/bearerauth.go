// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// TokenVerifier reports whether a bearer token is acceptable and returns
// the subject it belongs to.
type TokenVerifier func(token string) (subject string, ok bool)

// BearerAuth enforces an Authorization: Bearer header on the wrapped
// routes. Requests without a token, or whose token the verifier rejects,
// are answered with 401. On success the verified subject is stored in the
// request context.
func BearerAuth(verify TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, "bearer token required", http.StatusUnauthorized)
				return
			}
			subject, ok := verify(token)
			if !ok {
				http.Error(w, "invalid authentication credentials", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubjectFromContext extracts the verified token subject from the
// request context. Returns an empty string if not found.
func GetSubjectFromContext(ctx context.Context) string {
	val := ctx.Value(subjectKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
