package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
	"github.com/dropDatabas3/authcore/internal/metrics"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

// Refresh canjea un refresh token válido por un access token nuevo. El rol
// se relee de la DB: un cambio de rol o una desactivación posteriores a la
// emisión del refresh cortan la cadena acá. Con rotación activada también
// se emite un refresh nuevo y el usado queda revocado.
func (s *Service) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.RefreshResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
	)
	if in.RefreshToken == "" {
		return nil, ErrRefreshRejected
	}

	// Paso 1: verificar firma, expiry y audiencia refresh. Un access token
	// acá es audiencia incorrecta, no un refresh válido.
	claims, err := s.deps.Issuer.Parse(in.RefreshToken, jwtx.AudienceRefresh)
	if err != nil {
		metrics.TokenVerifyFailures.WithLabelValues(verifyFailureReason(err)).Inc()
		return nil, ErrRefreshRejected
	}

	// Paso 2: denylist. Si el backend no responde fallamos cerrado.
	revoked, err := s.deps.Revoker.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		log.Error("denylist check failed", logger.Err(err))
		return nil, ErrGuardUnavailable
	}
	if revoked {
		metrics.TokenVerifyFailures.WithLabelValues("revoked").Inc()
		return nil, ErrRefreshRejected
	}

	// Paso 3: releer al usuario. Subject inexistente o cuenta desactivada
	// invalidan el refresh aunque la firma sea buena.
	user, err := s.deps.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRefreshRejected
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDisabled
	}

	// Paso 4: emitir. Con rotación, el refresh usado se revoca hasta su
	// expiry natural para que no pueda canjearse dos veces.
	access, _, err := s.deps.Issuer.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	resp := &dto.RefreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.deps.Issuer.AccessTTL.Seconds()),
	}
	if s.deps.RefreshRotation {
		newRefresh, _, err := s.deps.Issuer.IssueRefresh(user.ID)
		if err != nil {
			return nil, err
		}
		if err := s.deps.Revoker.Revoke(ctx, claims.TokenID, claims.Expiry); err != nil {
			// Si no podemos revocar el viejo, no entregamos el nuevo:
			// rotación sin revocación es duplicar refresh tokens vivos.
			log.Error("refresh revoke failed", logger.Err(err))
			return nil, ErrGuardUnavailable
		}
		resp.RefreshToken = newRefresh
	}

	logger.Audit().Info("token refreshed", logger.UserID(user.ID))
	return resp, nil
}

// Logout revoca el refresh token presentado, si hay uno y la denylist está
// activa. Siempre es idempotente: logout sin token o con token ya vencido
// responde OK igual, el cliente descarta sus copias locales.
func (s *Service) Logout(ctx context.Context, in dto.LogoutRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
	)
	if in.RefreshToken == "" {
		return nil
	}
	claims, err := s.deps.Issuer.Parse(in.RefreshToken, jwtx.AudienceRefresh)
	if err != nil {
		// Un token inválido no tiene nada que revocar.
		return nil
	}
	if err := s.deps.Revoker.Revoke(ctx, claims.TokenID, claims.Expiry); err != nil {
		log.Error("logout revoke failed", logger.Err(err))
		return err
	}
	logger.Audit().Info("logout", logger.UserID(claims.Subject))
	return nil
}

// verifyFailureReason mapea el error de Parse al label de la métrica.
func verifyFailureReason(err error) string {
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
