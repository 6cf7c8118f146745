package auth

import "context"

type contextKey string

const userIDContextKey contextKey = "auth_user_id"

// NewContextWithUserID returns a copy of ctx carrying the authenticated subject.
func NewContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the subject stored by JWTMiddleware.
// The boolean is false when the request did not pass through the middleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok && userID != 0
}
