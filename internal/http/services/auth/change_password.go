package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

// ChangePassword cambia la credencial de un usuario autenticado previa
// verificación del password actual. Mismo CAS que el reset: dos cambios
// concurrentes no se pisan, el perdedor recibe ErrConflictRetry.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.change_password"),
		logger.UserID(userID),
	)
	if current == "" || next == "" {
		return ErrMissingFields
	}
	if ok, reasons := s.deps.Policy.Validate(next); !ok {
		return &WeakPasswordError{Reasons: reasons}
	}

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Active {
		return ErrUserDisabled
	}

	ok, err := s.deps.Hasher.Verify(ctx, current, user.PasswordHash)
	if err != nil {
		log.Error("password verify failed", logger.Err(err))
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	newHash, err := s.deps.Hasher.Hash(ctx, next)
	if err != nil {
		return err
	}
	if err := s.deps.Users.UpdatePassword(ctx, user.ID, newHash, user.CredentialVersion); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return ErrConflictRetry
		}
		return err
	}

	// Un cambio de password también quema cualquier reset pendiente.
	if err := s.deps.Tokens.InvalidateForUser(ctx, user.ID, repository.PurposePasswordReset); err != nil {
		log.Warn("reset token cleanup failed", logger.Err(err))
	}

	logger.Audit().Info("password changed", logger.UserID(user.ID))
	return nil
}
