package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/metrics"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	tokens "github.com/dropDatabas3/authcore/internal/security/token"
)

// ForgotPassword emite un token de reset y lo envía por email. Siempre
// retorna nil para requests bien formados: la respuesta no revela si el
// email existe. Pedir un reset nuevo invalida el anterior.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.forgot"),
	)

	emailAddr = repository.NormalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrMissingFields
	}

	user, err := s.deps.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Info("forgot password for unknown email")
			return nil
		}
		return err
	}
	if !user.Active {
		log.Info("forgot password for disabled user", logger.UserID(user.ID))
		return nil
	}

	plain, err := tokens.GenerateOpaqueToken(tokens.DefaultBytes)
	if err != nil {
		return err
	}
	if _, err := s.deps.Tokens.Create(ctx, repository.CreateSecretTokenInput{
		UserID:    user.ID,
		Purpose:   repository.PurposePasswordReset,
		TokenHash: tokens.SHA256Base64URL(plain),
		TTL:       s.deps.ResetTTL,
	}); err != nil {
		return err
	}
	if err := s.deps.Flows.SendPasswordReset(ctx, user.Email, plain, s.deps.ResetTTL); err != nil {
		// El token ya existe; el usuario puede volver a pedirlo.
		log.Error("reset email failed", logger.UserID(user.ID), logger.Err(err))
		return err
	}

	logger.Audit().Info("password reset requested", logger.UserID(user.ID))
	return nil
}

// ResetPassword consume el token de reset y cambia el password. Orden
// estricto: primero se consume el token (un solo uso) y recién después se
// escribe la credencial: un token quemado con policy inválida no deja el
// password a medio cambiar porque la policy se valida antes de consumir.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
	)
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}
	if ok, reasons := s.deps.Policy.Validate(newPassword); !ok {
		return &WeakPasswordError{Reasons: reasons}
	}

	// Paso 1: consumo atómico del token
	userID, err := s.deps.Tokens.Consume(ctx, tokens.SHA256Base64URL(token), repository.PurposePasswordReset)
	if err != nil {
		result := "invalid"
		if errors.Is(err, repository.ErrTokenExpired) {
			result = "expired"
		}
		metrics.SecretTokensConsumed.WithLabelValues(string(repository.PurposePasswordReset), result).Inc()
		if repository.IsNotFound(err) || errors.Is(err, repository.ErrTokenExpired) {
			return ErrInvalidToken
		}
		return err
	}
	metrics.SecretTokensConsumed.WithLabelValues(string(repository.PurposePasswordReset), "ok").Inc()

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Active {
		return ErrInvalidToken
	}

	// Paso 2: hashear y persistir con CAS sobre credential_version. Si otro
	// update ganó la carrera, el caller reintenta el flujo completo.
	newHash, err := s.deps.Hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Users.UpdatePassword(ctx, user.ID, newHash, user.CredentialVersion); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return ErrConflictRetry
		}
		return err
	}

	// Paso 3: ningún otro token de reset pendiente sobrevive al cambio
	if err := s.deps.Tokens.InvalidateForUser(ctx, user.ID, repository.PurposePasswordReset); err != nil {
		log.Warn("reset token cleanup failed", logger.UserID(user.ID), logger.Err(err))
	}

	logger.Audit().Info("password reset completed", logger.UserID(user.ID))
	return nil
}
