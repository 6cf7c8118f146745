// Package users serves the authenticated caller's own profile.
package users

import (
	"context"

	"github.com/user/expenses-go/auth"
)

// UserService reads profiles from the credential store.
type UserService struct {
	store auth.UserStore
}

// NewUserService creates a UserService over store.
func NewUserService(store auth.UserStore) *UserService {
	return &UserService{store: store}
}

// GetUserProfile returns the public view of the user. A missing user is a
// NotFound error from the store.
func (s *UserService) GetUserProfile(ctx context.Context, userID int64) (*auth.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}
