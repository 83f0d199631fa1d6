// Package middlewares contiene los middlewares HTTP del servicio:
// request logging, rate limiting, autenticación por Bearer token y RBAC.
package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/authcore/internal/http/errors"
	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
	"github.com/dropDatabas3/authcore/internal/metrics"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

type claimsKey struct{}

// ClaimsFrom extrae los claims del access token validado por Auth.
func ClaimsFrom(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*jwtx.Claims)
	return c, ok
}

// withClaims inyecta claims en el contexto (expuesto para tests de handlers).
func withClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// WithClaims es la versión exportada de withClaims para armar requests en
// tests sin pasar por el middleware completo.
func WithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return withClaims(ctx, c)
}

// Auth valida el Bearer token (audiencia access) y deja los claims en el
// contexto. Si la denylist no responde, el request se rechaza: fail closed.
func Auth(issuer *jwtx.Issuer, revoker jwtx.Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			claims, err := issuer.Parse(raw, jwtx.AudienceAccess)
			if err != nil {
				metrics.TokenVerifyFailures.WithLabelValues(parseFailureReason(err)).Inc()
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			revoked, err := revoker.IsRevoked(r.Context(), claims.TokenID)
			if err != nil {
				logger.From(r.Context()).Error("denylist check failed", logger.Err(err))
				httperrors.WriteError(w, httperrors.ErrInternal)
				return
			}
			if revoked {
				metrics.TokenVerifyFailures.WithLabelValues("revoked").Inc()
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func parseFailureReason(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return "expired"
	case errors.Is(err, jwtx.ErrSignatureInvalid):
		return "signature"
	case errors.Is(err, jwtx.ErrWrongAudience):
		return "audience"
	default:
		return "malformed"
	}
}
