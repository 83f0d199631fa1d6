// Package auth implementa los workflows de autenticación (el único lugar
// con orden de reglas de negocio): registro, login, verificación de email,
// forgot/reset de password, refresh y logout.
package auth

import (
	"fmt"
	"time"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/email"
	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
	"github.com/dropDatabas3/authcore/internal/rate"
	"github.com/dropDatabas3/authcore/internal/security/password"
)

// Deps contiene los colaboradores del orchestrator. Se inyectan por
// constructor una vez al arrancar el proceso: sin registry global.
type Deps struct {
	Users   repository.UserRepository
	Tokens  repository.SecretTokenRepository
	Hasher  *password.Hasher
	Policy  password.Policy
	Issuer  *jwtx.Issuer
	Guard   rate.Guard
	Revoker jwtx.Revoker // nil = NoopRevoker (logout stateless)
	Flows   *email.Flows

	VerifyTTL       time.Duration // default 24h
	ResetTTL        time.Duration // default 1h
	RefreshRotation bool
}

// Service agrupa los workflows de auth.
type Service struct {
	deps Deps
}

// New crea el servicio aplicando defaults.
func New(deps Deps) *Service {
	if deps.Revoker == nil {
		deps.Revoker = jwtx.NoopRevoker{}
	}
	if deps.VerifyTTL == 0 {
		deps.VerifyTTL = 24 * time.Hour
	}
	if deps.ResetTTL == 0 {
		deps.ResetTTL = time.Hour
	}
	return &Service{deps: deps}
}

// Errores de los workflows.
var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrWeakPassword       = fmt.Errorf("password does not meet policy")
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserDisabled       = fmt.Errorf("user disabled")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrRefreshRejected    = fmt.Errorf("refresh token rejected")
	ErrConflictRetry      = fmt.Errorf("concurrent credential update, retry")
	ErrGuardUnavailable   = fmt.Errorf("admission check unavailable")
)

// LockedOutError indica lockout activo; lleva el hint de reintento.
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("locked out, retry after %s", e.RetryAfter)
}

// WeakPasswordError envuelve ErrWeakPassword con los motivos de la policy.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string { return ErrWeakPassword.Error() }
func (e *WeakPasswordError) Unwrap() error { return ErrWeakPassword }
