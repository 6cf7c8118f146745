package auth

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required,max=64" example:"alice"`
	Password string `json:"password" validate:"required,max=72" example:"correct horse battery staple"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"alice"`
	Password string `json:"password" validate:"required" example:"correct horse battery staple"`
}

// SignupResponse wraps the created user.
type SignupResponse struct {
	Status string `json:"status" example:"success"`
	Data   *User  `json:"data"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Status    string `json:"status" example:"success"`
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType string `json:"token_type" example:"Bearer"`
	// Lifetime of the token in seconds.
	ExpiresIn int64 `json:"expires_in" example:"3600"`
}
