package utils

import "context"

type contextKey string

const userIDKey contextKey = "userId"

// WithUserID stamps the authenticated user id onto the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" when the request
// never passed the auth middleware.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
