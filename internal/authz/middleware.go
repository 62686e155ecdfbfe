package authz

import (
	"net/http"

	"github.com/alumnet/alumnet-api/internal/models"
)

// roleTier orders roles for at-least comparisons.
func roleTier(role models.UserRole) int {
	switch role {
	case models.RoleAdmin:
		return 3
	case models.RoleModerator:
		return 2
	case models.RoleMember:
		return 1
	}
	return 0
}

// RequireRole returns a middleware that ensures the requester has at least
// the required role tier.
func RequireRole(required models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromRequest(r)
			if !ok || roleTier(role) < roleTier(required) {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
