package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/isdelr/voting-be/internal/api/respond"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/rs/zerolog/log"
)

// RoleChecker reports whether a user holds a role. Implementations must fail
// closed: any lookup error or missing user yields false.
type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role models.Role) bool
}

// RequireRole only lets requests through when the authenticated user holds role.
// It must run after TokenManager.Middleware.
func RequireRole(checker RoleChecker, role models.Role) func(http.Handler) http.Handler {
	denied := fmt.Sprintf("User does not have %s role", role)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !checker.HasRole(r.Context(), claims.UserID, role) {
				userID := ""
				if ok {
					userID = claims.UserID
				}
				log.Info().Str("user_id", userID).Str("role", string(role)).Msg("Role check failed")
				respond.Message(w, http.StatusForbidden, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
