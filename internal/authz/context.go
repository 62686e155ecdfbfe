package authz

import (
	"context"
	"net/http"

	"github.com/alumnet/alumnet-api/internal/models"
)

type contextKey string

const (
	userIDKey     contextKey = "user_id"
	userRoleKey   contextKey = "user_role"
	ambassadorKey contextKey = "is_ambassador"
)

// WithIdentity stores the authenticated actor on the context.
func WithIdentity(ctx context.Context, userID string, role models.UserRole, isAmbassador bool) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	ctx = context.WithValue(ctx, userRoleKey, role)
	ctx = context.WithValue(ctx, ambassadorKey, isAmbassador)
	return ctx
}

func UserIDFromRequest(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(userIDKey).(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

func RoleFromRequest(r *http.Request) (models.UserRole, bool) {
	role, ok := r.Context().Value(userRoleKey).(models.UserRole)
	if !ok || !models.IsValidRole(role) {
		return "", false
	}
	return role, true
}

func IsAmbassadorFromRequest(r *http.Request) bool {
	flag, ok := r.Context().Value(ambassadorKey).(bool)
	return ok && flag
}
