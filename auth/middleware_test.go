package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/expenses-go/apperror"
)

func protectedHandler(called *bool, seen *int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if id, ok := UserIDFromContext(r.Context()); ok {
			*seen = id
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	valid := NewTokenService(testSecret, WithClock(fixedClock(issuedAt)))
	expiredToken, _, err := valid.Issue(5)
	require.NoError(t, err)
	foreignToken, _, err := NewTokenService("someone-else", WithClock(fixedClock(issuedAt))).Issue(5)
	require.NoError(t, err)

	// Verifier living two hours after issuance.
	verifier := NewTokenService(testSecret, WithClock(fixedClock(issuedAt.Add(2*time.Hour))))

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Authorization header is missing"},
		{"no scheme", expiredToken, "Authorization header format must be Bearer {token}"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Authorization header format must be Bearer {token}"},
		{"empty token", "Bearer ", "Authorization header format must be Bearer {token}"},
		{"garbage token", "Bearer not-a-jwt", "invalid token"},
		{"foreign signature", "Bearer " + foreignToken, "invalid token"},
		{"expired", "Bearer " + expiredToken, "token has expired"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			var seen int64
			h := JWTMiddleware(verifier, nil)(protectedHandler(&called, &seen))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called, "protected handler must not run")

			var body apperror.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestJWTMiddleware_InjectsSubject(t *testing.T) {
	svc := NewTokenService(testSecret)
	token, _, err := svc.Issue(77)
	require.NoError(t, err)

	for _, scheme := range []string{"Bearer", "bearer"} {
		var called bool
		var seen int64
		h := JWTMiddleware(svc, nil)(protectedHandler(&called, &seen))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, called)
		assert.Equal(t, int64(77), seen)
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)
}
