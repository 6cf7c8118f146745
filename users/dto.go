package users

import "github.com/user/expenses-go/auth"

// UserProfileResponse wraps the caller's profile.
type UserProfileResponse struct {
	Status string     `json:"status" example:"success"`
	Data   *auth.User `json:"data"`
}
