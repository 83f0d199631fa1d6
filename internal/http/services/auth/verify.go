package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/metrics"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	tokens "github.com/dropDatabas3/authcore/internal/security/token"
)

// VerifyEmail consume el token de verificación y marca el email del dueño
// como verificado. El consumo es de un solo uso: un segundo intento con el
// mismo token falla sin tocar al usuario.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.verify"),
	)
	if token == "" {
		return ErrInvalidToken
	}

	// Paso 1: consumir por digest. El plaintext nunca toca el store.
	userID, err := s.deps.Tokens.Consume(ctx, tokens.SHA256Base64URL(token), repository.PurposeEmailVerification)
	if err != nil {
		result := "invalid"
		if errors.Is(err, repository.ErrTokenExpired) {
			result = "expired"
		}
		metrics.SecretTokensConsumed.WithLabelValues(string(repository.PurposeEmailVerification), result).Inc()
		if repository.IsNotFound(err) || errors.Is(err, repository.ErrTokenExpired) {
			return ErrInvalidToken
		}
		return err
	}
	metrics.SecretTokensConsumed.WithLabelValues(string(repository.PurposeEmailVerification), "ok").Inc()

	// Paso 2: marcar verificado
	if err := s.deps.Users.SetEmailVerified(ctx, userID); err != nil {
		log.Error("set email verified failed", logger.UserID(userID), logger.Err(err))
		return err
	}

	logger.Audit().Info("email verified", logger.UserID(userID))
	return nil
}
