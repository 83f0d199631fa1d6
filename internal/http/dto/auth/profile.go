package auth

import (
	"time"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
)

// UserView es la proyección pública de un usuario. Nunca incluye el digest.
type UserView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Active        bool      `json:"active"`
	EmailVerified bool      `json:"email_verified"`
	GivenName     string    `json:"given_name,omitempty"`
	FamilyName    string    `json:"family_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUserView proyecta la entidad de dominio.
func NewUserView(u *repository.User) UserView {
	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		Role:          string(u.Role),
		Active:        u.Active,
		EmailVerified: u.EmailVerified,
		GivenName:     u.GivenName,
		FamilyName:    u.FamilyName,
		CreatedAt:     u.CreatedAt,
	}
}
