package middleware

import (
	"net/http"

	"github.com/m4ssya/warehouse-backend/api/responses"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

// RequireRole gates a route group on the authenticated actor's role.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual := RoleFromContext(r.Context())
			if actual != role {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"required_role": role,
						"actor_role":    actual,
					})
					logg.Warn(ctx, "role check failed")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient privileges"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
