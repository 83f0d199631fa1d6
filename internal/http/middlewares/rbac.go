package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/authcore/internal/domain/types"
	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
)

// RequireRole corta requests cuyo rol no alcanza el mínimo requerido.
// Se monta después de Auth: sin claims en contexto responde 401.
func RequireRole(required types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			if !types.Role(claims.Role).Permits(required) {
				httperrors.WriteError(w, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
