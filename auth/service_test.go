package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/background"
	"github.com/user/expenses-go/metrics"
)

// memUserStore is an in-memory UserStore.
type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*User
	err    error // returned by every call when set
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*User)}
}

func (m *memUserStore) CreateUser(_ context.Context, username, digest string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.users[username]; ok {
		return nil, apperror.NewDuplicateAccountError("User already exists", nil)
	}
	m.nextID++
	u := &User{ID: m.nextID, Username: username, PasswordDigest: digest, CreatedAt: time.Now()}
	m.users[username] = u
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func newTestAuthService(t *testing.T, store UserStore, rec metrics.Recorder) *AuthService {
	t.Helper()
	return NewAuthService(store, newTestHasher(t), NewTokenService(testSecret), rec, nil)
}

func TestAuthService_SignupThenVerify(t *testing.T) {
	pairs := []struct{ username, password string }{
		{"alice", "pw1"},
		{"Bob", "correct horse battery staple"},
		{"carol", "ünïcødé-pässwörd"},
	}
	svc := newTestAuthService(t, newMemUserStore(), nil)
	ctx := context.Background()

	for _, p := range pairs {
		user, err := svc.Signup(ctx, SignupRequest{Username: p.username, Password: p.password})
		require.NoError(t, err)
		assert.Empty(t, user.PasswordDigest)
		assert.NotZero(t, user.ID)

		verified, err := svc.VerifyCredentials(ctx, p.username, p.password)
		require.NoError(t, err)
		assert.Equal(t, user.ID, verified.ID)
		assert.Empty(t, verified.PasswordDigest)

		_, err = svc.VerifyCredentials(ctx, p.username, p.password+"x")
		assert.True(t, apperror.Is(err, apperror.InvalidCredentialsError))
	}
}

func TestAuthService_StoresDigestNotPlaintext(t *testing.T) {
	store := newMemUserStore()
	svc := newTestAuthService(t, store, nil)

	_, err := svc.Signup(context.Background(), SignupRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	stored := store.users["alice"]
	assert.NotEqual(t, "pw1", stored.PasswordDigest)
	assert.NotEmpty(t, stored.PasswordDigest)
}

func TestAuthService_SignupDuplicate(t *testing.T) {
	svc := newTestAuthService(t, newMemUserStore(), nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	for _, pw := range []string{"pw1", "different"} {
		_, err = svc.Signup(ctx, SignupRequest{Username: "alice", Password: pw})
		assert.True(t, apperror.Is(err, apperror.DuplicateAccountError))
	}
}

func TestAuthService_UsernameIsCaseSensitive(t *testing.T) {
	svc := newTestAuthService(t, newMemUserStore(), nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, SignupRequest{Username: "Alice", Password: "pw1"})
	require.NoError(t, err)

	_, err = svc.VerifyCredentials(ctx, "ALICE", "pw1")
	assert.True(t, apperror.Is(err, apperror.InvalidCredentialsError))
}

func TestAuthService_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	svc := newTestAuthService(t, newMemUserStore(), nil)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, wrongPw := svc.VerifyCredentials(ctx, "alice", "wrong")
	_, noUser := svc.VerifyCredentials(ctx, "nobody", "wrong")

	a, ok := apperror.FromError(wrongPw)
	require.True(t, ok)
	b, ok := apperror.FromError(noUser)
	require.True(t, ok)
	assert.Equal(t, a.Type, b.Type)
	assert.Equal(t, a.Message, b.Message)
}

func TestAuthService_StorageErrorsPropagate(t *testing.T) {
	store := newMemUserStore()
	store.err = apperror.NewStorageError("failed to get user", errors.New("db down"))
	svc := newTestAuthService(t, store, nil)

	_, err := svc.Signup(context.Background(), SignupRequest{Username: "alice", Password: "pw1"})
	assert.True(t, apperror.Is(err, apperror.StorageError))

	_, err = svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw1"})
	assert.True(t, apperror.Is(err, apperror.StorageError))
}

func TestAuthService_LoginIssuesVerifiableToken(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)
	svc := newTestAuthService(t, newMemUserStore(), rec)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	subject, err := NewTokenService(testSecret).Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	_, err = svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.InvalidCredentialsError))

	series, err := testutil.GatherAndCount(reg, "expenses_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestAuthService_HashingFaultIsNotAMatch(t *testing.T) {
	pool := background.NewWorkerPool(1, 1, nil)
	hasher, err := NewBcryptHasher(bcrypt.MinCost, pool, nil)
	require.NoError(t, err)
	svc := NewAuthService(newMemUserStore(), hasher, NewTokenService(testSecret), nil, nil)
	ctx := context.Background()

	_, err = svc.Signup(ctx, SignupRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	pool.Stop()

	resp, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw1"})
	assert.Nil(t, resp)
	assert.True(t, apperror.Is(err, apperror.InternalError))

	_, err = svc.Signup(ctx, SignupRequest{Username: "bob", Password: "pw2"})
	assert.True(t, apperror.Is(err, apperror.InternalError))
}
