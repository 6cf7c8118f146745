package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/auth"
)

type stubStore struct {
	users map[int64]*auth.User
}

func (s stubStore) CreateUser(context.Context, string, string) (*auth.User, error) {
	return nil, apperror.NewInternalError("not supported", nil)
}

func (s stubStore) GetUserByUsername(context.Context, string) (*auth.User, error) {
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (s stubStore) GetUserByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func newTestHandlers() *UserHandlers {
	store := stubStore{users: map[int64]*auth.User{
		1: {ID: 1, Username: "alice", PasswordDigest: "$2a$10$secret", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	return NewUserHandlers(NewUserService(store))
}

func get(h http.HandlerFunc, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	if userID != 0 {
		req = req.WithContext(auth.NewContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleGetUserProfile(t *testing.T) {
	rec := get(newTestHandlers().HandleGetUserProfile(), 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	var resp UserProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "alice", resp.Data.Username)
	assert.Empty(t, resp.Data.PasswordDigest)
}

func TestHandleGetUserProfile_Errors(t *testing.T) {
	h := newTestHandlers().HandleGetUserProfile()
	assert.Equal(t, http.StatusUnauthorized, get(h, 0).Code)
	assert.Equal(t, http.StatusNotFound, get(h, 42).Code)
}
