package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	userNameKey contextKey = "userName"
)

// WithUser adds the caller's id and display name to the request context
func WithUser(r *http.Request, userID, userName string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, userNameKey, userName)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// GetUserName retrieves the caller's display name, falling back to the id
func GetUserName(r *http.Request) string {
	if name, _ := r.Context().Value(userNameKey).(string); name != "" {
		return name
	}
	return GetUserID(r)
}
