package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/expenses-go/apperror"
)

const testSecret = "test-signing-secret"

var issuedAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, WithClock(fixedClock(issuedAt)))

	token, expiresAt, err := svc.Issue(42)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expiresAt)

	subject, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), subject)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	token, _, err := NewTokenService(testSecret, WithClock(fixedClock(issuedAt))).Issue(7)
	require.NoError(t, err)

	justBefore := NewTokenService(testSecret, WithClock(fixedClock(issuedAt.Add(TokenLifetime-time.Second))))
	subject, err := justBefore.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), subject)

	for _, at := range []time.Time{issuedAt.Add(TokenLifetime), issuedAt.Add(TokenLifetime + time.Second)} {
		after := NewTokenService(testSecret, WithClock(fixedClock(at)))
		_, err = after.Verify(token)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.TokenExpiredError), "at %s: %v", at, err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := NewTokenService("other-secret", WithClock(fixedClock(issuedAt))).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, WithClock(fixedClock(issuedAt))).Verify(token)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.InvalidTokenError))
}

func TestTokenService_Tampered(t *testing.T) {
	svc := NewTokenService(testSecret, WithClock(fixedClock(issuedAt)))
	token, _, err := svc.Issue(1)
	require.NoError(t, err)

	other, _, err := svc.Issue(2)
	require.NoError(t, err)

	// Payload of token 2 with the signature of token 1.
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := strings.Join([]string{otherParts[0], otherParts[1], parts[2]}, ".")

	_, err = svc.Verify(forged)
	assert.True(t, apperror.Is(err, apperror.InvalidTokenError))
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, WithClock(fixedClock(issuedAt))).Verify(unsigned)
	assert.True(t, apperror.Is(err, apperror.InvalidTokenError))
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	claims := &Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: tokenIssuer},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenService(testSecret).Verify(token)
	assert.True(t, apperror.Is(err, apperror.InvalidTokenError))
}

func TestTokenService_InconsistentSubject(t *testing.T) {
	claims := &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "2",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, WithClock(fixedClock(issuedAt))).Verify(token)
	assert.True(t, apperror.Is(err, apperror.InvalidTokenError))
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService(testSecret)
	for _, s := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := svc.Verify(s)
		assert.True(t, apperror.Is(err, apperror.InvalidTokenError), "input %q", s)
	}
}
