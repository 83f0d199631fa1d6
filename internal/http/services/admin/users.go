// Package admin implementa las operaciones de gestión de cuentas
// reservadas a administradores.
package admin

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/domain/types"
	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
)

// Deps contiene los colaboradores del servicio de administración.
type Deps struct {
	Users  repository.UserRepository
	Tokens repository.SecretTokenRepository
}

type Service struct {
	deps Deps
}

func New(deps Deps) *Service { return &Service{deps: deps} }

var (
	ErrInvalidRole = fmt.Errorf("invalid role")
	ErrSelfDemote  = fmt.Errorf("cannot change own role")
)

// Deactivate apaga la cuenta. Los access tokens vivos siguen hasta su
// expiry, pero login, refresh y reset quedan cortados de inmediato.
func (s *Service) Deactivate(ctx context.Context, actorID, targetID string) error {
	if err := s.deps.Users.Deactivate(ctx, targetID); err != nil {
		return err
	}
	// Tokens de reset pendientes de una cuenta apagada no deben servir.
	if err := s.deps.Tokens.InvalidateForUser(ctx, targetID, repository.PurposePasswordReset); err != nil {
		logger.From(ctx).Warn("reset token cleanup failed", logger.UserID(targetID), logger.Err(err))
	}
	logger.Audit().Warn("user deactivated",
		logger.UserID(targetID),
		logger.String("actor_id", actorID),
	)
	return nil
}

// ChangeRole asigna un rol nuevo. Un administrador no se cambia el rol a sí
// mismo: evita quedarse sin administradores por accidente.
func (s *Service) ChangeRole(ctx context.Context, actorID, targetID string, role types.Role) (*dto.UserView, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if types.IsSelf(actorID, targetID) {
		return nil, ErrSelfDemote
	}
	if err := s.deps.Users.SetRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	user, err := s.deps.Users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	logger.Audit().Warn("role changed",
		logger.UserID(targetID),
		logger.Role(string(role)),
		logger.String("actor_id", actorID),
	)
	v := dto.NewUserView(user)
	return &v, nil
}
