// Package auth holds the identity and access-control layer: the credential
// store, password hashing, token issuance/verification and the bearer-token
// middleware guarding protected routes.
package auth

import "time"

// User represents a registered account.
type User struct {
	ID             int64     `json:"id" example:"1"`
	Username       string    `json:"username" example:"alice"`
	PasswordDigest string    `json:"-"` // Never serialized
	CreatedAt      time.Time `json:"created_at" example:"2024-01-01T10:30:00Z"`
}

// Public returns a copy of u without the password digest, for callers
// outside the credential layer.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordDigest = ""
	return &cp
}
