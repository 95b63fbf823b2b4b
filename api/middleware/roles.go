package middleware

import (
	"net/http"

	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

// RequireAdmin rejects callers whose wallet holds none of the given platform
// roles. With no roles listed, any platform role passes.
func RequireAdmin(logg *logger.Logger, roles ...enums.AdminRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := AdminRoleFromContext(r.Context())
			if role == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "platform role required"))
				return
			}
			if len(roles) > 0 {
				allowed := false
				for _, candidate := range roles {
					if role == string(candidate) {
						allowed = true
						break
					}
				}
				if !allowed {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient platform role"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
