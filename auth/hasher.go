package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/background"
	"github.com/user/expenses-go/metrics"
)

// ErrPasswordMismatch is returned by Compare when the password does not match.
var ErrPasswordMismatch = errors.New("password does not match digest")

// dummyPassword is hashed once at startup so that logins for unknown
// usernames spend as long in bcrypt as logins with a wrong password.
const dummyPassword = "expenses-timing-equalizer"

// PasswordHasher produces and checks salted password digests.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, digest, password string) error
	// CompareDummy burns the same work as Compare and always fails.
	CompareDummy(ctx context.Context, password string)
}

// BcryptHasher runs bcrypt on a fixed-size worker pool.
type BcryptHasher struct {
	cost    int
	pool    *background.WorkerPool
	dummy   []byte
	metrics metrics.Recorder
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher with the given bcrypt cost. All hashing
// is executed on pool.
func NewBcryptHasher(cost int, pool *background.WorkerPool, rec metrics.Recorder) (*BcryptHasher, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to initialise password hasher", err)
	}
	return &BcryptHasher{
		cost:    cost,
		pool:    pool,
		dummy:   dummy,
		metrics: metrics.OrNop(rec),
	}, nil
}

// Hash returns the bcrypt digest of password. bcrypt generates and embeds
// its own random salt.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	var digest []byte
	var hashErr error

	err := h.submit(ctx, func() {
		digest, hashErr = bcrypt.GenerateFromPassword([]byte(password), h.cost)
	})
	if err != nil {
		return "", err
	}
	if errors.Is(hashErr, bcrypt.ErrPasswordTooLong) {
		return "", apperror.NewValidationError("password must be at most 72 bytes", nil)
	}
	if hashErr != nil {
		return "", apperror.NewInternalError("failed to hash password", hashErr)
	}
	return string(digest), nil
}

// Compare checks password against digest in constant time. It returns
// ErrPasswordMismatch when they differ.
func (h *BcryptHasher) Compare(ctx context.Context, digest, password string) error {
	var cmpErr error
	err := h.submit(ctx, func() {
		cmpErr = bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	})
	if err != nil {
		return err
	}
	if cmpErr != nil {
		if errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return apperror.NewInternalError("failed to compare password", cmpErr)
	}
	return nil
}

// CompareDummy compares password against the startup digest and discards
// the result.
func (h *BcryptHasher) CompareDummy(ctx context.Context, password string) {
	_ = h.submit(ctx, func() {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	})
}

func (h *BcryptHasher) submit(ctx context.Context, fn func()) error {
	start := time.Now()
	defer func() {
		h.metrics.RecordHashDuration(time.Since(start))
	}()

	if err := h.pool.Do(ctx, fn); err != nil {
		return apperror.NewInternalError("password hashing unavailable", err)
	}
	return nil
}
