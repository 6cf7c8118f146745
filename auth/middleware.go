package auth

import (
	"net/http"
	"strings"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/metrics"
)

// JWTMiddleware guards protected routes. It requires an
// "Authorization: Bearer <token>" header, verifies the token and stores the
// subject in the request context. Every failure is a 401 written before the
// wrapped handler runs.
func JWTMiddleware(verifier TokenVerifier, rec metrics.Recorder) func(next http.Handler) http.Handler {
	rec = metrics.OrNop(rec)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				rec.RecordTokenRejected("missing")
				WriteError(w, r, apperror.NewUnauthenticatedError("Authorization header is missing", nil))
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			tokenString = strings.TrimSpace(tokenString)
			if !found || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				rec.RecordTokenRejected("malformed")
				WriteError(w, r, apperror.NewUnauthenticatedError("Authorization header format must be Bearer {token}", nil))
				return
			}

			userID, err := verifier.Verify(tokenString)
			if err != nil {
				if apperror.Is(err, apperror.TokenExpiredError) {
					rec.RecordTokenRejected("expired")
					WriteError(w, r, apperror.NewUnauthenticatedError("token has expired", err))
					return
				}
				rec.RecordTokenRejected("invalid")
				WriteError(w, r, apperror.NewUnauthenticatedError("invalid token", err))
				return
			}

			ctx := NewContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
