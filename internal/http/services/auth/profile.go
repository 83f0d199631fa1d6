package auth

import (
	"context"

	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
)

// Me retorna la vista pública del usuario autenticado.
func (s *Service) Me(ctx context.Context, userID string) (*dto.UserView, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDisabled
	}
	v := dto.NewUserView(user)
	return &v, nil
}
