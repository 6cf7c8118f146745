// Authentication, business logic layer.
// This file, `service.go`, holds the signup and login flows. Handlers decode
// and validate the request, then call into AuthService; AuthService talks to
// the credential store, the password hasher and the token service, and
// returns apperror values that WriteError turns into responses.

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/metrics"
)

// invalidCredentialsMessage is shared by the unknown-user and wrong-password
// paths so responses do not reveal whether an account exists.
const invalidCredentialsMessage = "invalid username or password"

// AuthService implements signup and login on top of the credential store,
// the password hasher and the token service.
type AuthService struct {
	store   UserStore
	hasher  PasswordHasher
	tokens  *TokenService
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthService wires the auth dependencies together. rec and logger may be nil.
func NewAuthService(store UserStore, hasher PasswordHasher, tokens *TokenService, rec metrics.Recorder, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		metrics: metrics.OrNop(rec),
		logger:  logger,
	}
}

// Signup creates an account. It fails with DuplicateAccount when the
// username is taken. The returned user carries no digest.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	user, err := s.signup(ctx, req)
	switch {
	case err == nil:
		s.metrics.RecordSignup(metrics.OutcomeSuccess)
	case apperror.Is(err, apperror.DuplicateAccountError):
		s.metrics.RecordSignup(metrics.OutcomeDuplicate)
	default:
		s.metrics.RecordSignup(metrics.OutcomeError)
	}
	return user, err
}

func (s *AuthService) signup(ctx context.Context, req SignupRequest) (*User, error) {
	// 1. Exact-match lookup. Any hit means the name is taken; "Alice" and
	// "alice" are different accounts.
	_, err := s.store.GetUserByUsername(ctx, req.Username)
	if err == nil {
		return nil, apperror.NewDuplicateAccountError("User already exists", nil)
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	// 2. Hash on the worker pool. The plaintext goes no further than this call.
	digest, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	// 3. Insert. Two concurrent signups for one name can both pass step 1;
	// the unique constraint makes the loser a DuplicateAccount here.
	created, err := s.store.CreateUser(ctx, req.Username, digest)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", slog.Int64("user_id", created.ID))
	return created.Public(), nil
}

// VerifyCredentials returns the user when password matches the stored
// digest, and InvalidCredentials otherwise. Unknown usernames still pay for
// one bcrypt comparison.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) (*User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Same bcrypt work and same error as a wrong password.
			s.hasher.CompareDummy(ctx, password)
			return nil, apperror.NewInvalidCredentialsError(invalidCredentialsMessage, nil)
		}
		return nil, err
	}

	// Only ErrPasswordMismatch is a bad password. Any other error (pool
	// stopped, job panicked, caller gone) is a fault and is returned as is.
	if err := s.hasher.Compare(ctx, user.PasswordDigest, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, apperror.NewInvalidCredentialsError(invalidCredentialsMessage, nil)
		}
		return nil, err
	}
	return user.Public(), nil
}

// Login verifies the credentials and issues a token for the user.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		if apperror.Is(err, apperror.InvalidCredentialsError) {
			s.metrics.RecordLogin(metrics.OutcomeInvalid)
		} else {
			s.metrics.RecordLogin(metrics.OutcomeError)
		}
		return nil, err
	}

	// The token carries only the user id; nothing is stored server side.
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, err
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	return &TokenResponse{
		Status:    "success",
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(TokenLifetime.Seconds()),
	}, nil
}
