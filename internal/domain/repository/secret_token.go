package repository

import (
	"context"
	"time"
)

// SecretToken representa un token temporal de un solo uso para verificación
// de email o password reset. Solo se persiste el digest (SHA-256), nunca el
// valor en claro.
type SecretToken struct {
	ID        string
	UserID    string
	Purpose   SecretTokenPurpose
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// SecretTokenPurpose indica el propósito del token.
type SecretTokenPurpose string

const (
	PurposeEmailVerification SecretTokenPurpose = "email_verification"
	PurposePasswordReset     SecretTokenPurpose = "password_reset"
)

// IsValid retorna true si el propósito pertenece a la enumeración.
func (p SecretTokenPurpose) IsValid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset
}

// CreateSecretTokenInput contiene los datos para crear un secret token.
type CreateSecretTokenInput struct {
	UserID    string
	Purpose   SecretTokenPurpose
	TokenHash string
	TTL       time.Duration
}

// SecretTokenRepository define operaciones sobre secret tokens.
type SecretTokenRepository interface {
	// Create crea un nuevo token. Invariante: como máximo un token vivo
	// (no expirado, no usado) por usuario y propósito; crear uno nuevo
	// invalida el anterior.
	Create(ctx context.Context, input CreateSecretTokenInput) (*SecretToken, error)

	// Consume marca el token como usado y retorna el user ID, de forma
	// atómica y destructiva: un segundo consumo del mismo hash falla aunque
	// sea concurrente (check-and-clear en una sola operación del store).
	// Retorna ErrNotFound si no existe, ErrTokenExpired si expiró o ya fue usado.
	Consume(ctx context.Context, tokenHash string, purpose SecretTokenPurpose) (userID string, err error)

	// InvalidateForUser invalida todos los tokens vivos de un usuario para
	// un propósito (ej: al completar un reset, anular cualquier reset pendiente).
	InvalidateForUser(ctx context.Context, userID string, purpose SecretTokenPurpose) error

	// DeleteExpired elimina tokens expirados (cleanup job).
	// Retorna el número de tokens eliminados.
	DeleteExpired(ctx context.Context) (int, error)
}
