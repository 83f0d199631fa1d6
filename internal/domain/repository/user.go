package repository

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/authcore/internal/domain/types"
)

// User representa un usuario del sistema.
//
// El valor es inmutable desde el punto de vista del dominio: las
// transiciones (Verified, WithRole, Deactivated, WithPassword) retornan una
// copia con el cambio aplicado en vez de mutar el receiver. La persistencia
// de cada transición es responsabilidad del repositorio.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          types.Role
	Active        bool
	EmailVerified bool

	// CredentialVersion se incrementa en cada cambio de password y se usa
	// como token de compare-and-swap para serializar reset vs change-password
	// entre instancias (sin mutex de aplicación).
	CredentialVersion int64

	GivenName  string
	FamilyName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Name retorna el nombre completo para display.
func (u User) Name() string {
	return strings.TrimSpace(strings.TrimSpace(u.GivenName) + " " + strings.TrimSpace(u.FamilyName))
}

// Verified retorna una copia con el email marcado como verificado.
func (u User) Verified(at time.Time) User {
	u.EmailVerified = true
	u.UpdatedAt = at
	return u
}

// WithRole retorna una copia con el rol cambiado.
func (u User) WithRole(r types.Role, at time.Time) User {
	u.Role = r
	u.UpdatedAt = at
	return u
}

// Deactivated retorna una copia desactivada. Es el estado terminal: el core
// nunca hace hard-delete de usuarios.
func (u User) Deactivated(at time.Time) User {
	u.Active = false
	u.UpdatedAt = at
	return u
}

// WithPassword retorna una copia con el digest reemplazado completo
// (nunca se parchea in-place) y la versión de credenciales incrementada.
func (u User) WithPassword(hash string, at time.Time) User {
	u.PasswordHash = hash
	u.CredentialVersion++
	u.UpdatedAt = at
	return u
}

// NormalizeEmail aplica la normalización canónica de emails (clave única
// case-insensitive).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Role         types.Role
	GivenName    string
	FamilyName   string
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByEmail busca un usuario por email (normalizado).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// Create crea un nuevo usuario (activo, email sin verificar).
	// Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// SetEmailVerified marca el email como verificado.
	SetEmailVerified(ctx context.Context, userID string) error

	// UpdatePassword reemplaza el digest de credenciales de forma condicional:
	// solo aplica si la versión actual coincide con expectedVersion
	// (compare-and-swap). Retorna ErrVersionMismatch si otra operación
	// concurrente modificó las credenciales, ErrNotFound si no existe.
	UpdatePassword(ctx context.Context, userID, newHash string, expectedVersion int64) error

	// SetRole cambia el rol del usuario.
	SetRole(ctx context.Context, userID string, role types.Role) error

	// Deactivate desactiva un usuario (estado terminal para este core).
	Deactivate(ctx context.Context, userID string) error
}
