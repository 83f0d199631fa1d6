package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	"github.com/dropDatabas3/authcore/internal/metrics"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/rate"
	"github.com/dropDatabas3/authcore/internal/util"
	"go.uber.org/zap"
)

// Login autentica con email+password. clientKey identifica al cliente para
// el guard de fuerza bruta (normalmente email|ip). Todos los caminos de
// rechazo por credenciales devuelven ErrInvalidCredentials: nunca se revela
// si el email existe.
func (s *Service) Login(ctx context.Context, in dto.LoginRequest, clientKey string) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
	)

	// Paso 0: normalización
	in.Email = repository.NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	// Paso 1: admisión. Si el guard no responde fallamos cerrado: denegar
	// es más barato que dejar pasar fuerza bruta sin contar.
	st, err := s.deps.Guard.Check(ctx, clientKey)
	if err != nil {
		log.Error("lockout check failed", logger.Err(err))
		return nil, ErrGuardUnavailable
	}
	if st.Locked {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		logger.Audit().Info("login rejected: locked out",
			logger.Email(util.MaskEmail(in.Email)),
			logger.Reason("lockout"),
		)
		return nil, &LockedOutError{RetryAfter: st.RetryAfter}
	}

	// Paso 2: buscar usuario. Un email inexistente cuenta como fallo igual
	// que un password incorrecto.
	user, err := s.deps.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, s.recordFailure(ctx, log, clientKey, in.Email)
		}
		return nil, err
	}

	// Paso 3: cuenta desactivada. No toca el contador: el password puede
	// ser correcto y no queremos lockear al dueño legítimo.
	if !user.Active {
		metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		logger.Audit().Info("login rejected: user disabled",
			logger.UserID(user.ID),
			logger.Reason("disabled"),
		)
		return nil, ErrUserDisabled
	}

	// Paso 4: verificar password
	ok, err := s.deps.Hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		log.Error("password verify failed", logger.Err(err))
		return nil, err
	}
	if !ok {
		return nil, s.recordFailure(ctx, log, clientKey, in.Email)
	}

	// Paso 5: éxito. Limpiar el contador y, si el hash quedó con parámetros
	// viejos, re-hashear en caliente (best-effort, CAS sobre la versión).
	if err := s.deps.Guard.Reset(ctx, clientKey); err != nil {
		log.Warn("lockout reset failed", logger.Err(err))
	}
	s.maybeUpgradeHash(ctx, log, user, in.Password)

	// Paso 6: emitir tokens
	access, refresh, expiresIn, err := s.issueTokens(user)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	logger.Audit().Info("login ok", logger.UserID(user.ID), logger.Role(string(user.Role)))
	return &dto.LoginResponse{
		User:         dto.NewUserView(user),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}, nil
}

// recordFailure suma el fallo al guard y devuelve el error genérico. Si el
// backend del guard está caído el fallo se degrada a ErrGuardUnavailable:
// nunca respondemos "credenciales inválidas" sin haber contado el intento.
func (s *Service) recordFailure(ctx context.Context, log *zap.Logger, clientKey, email string) error {
	locked, err := s.deps.Guard.RecordFailure(ctx, clientKey)
	if err != nil {
		if errors.Is(err, rate.ErrGuardUnavailable) {
			log.Error("lockout record failed", logger.Err(err))
			return ErrGuardUnavailable
		}
		return err
	}
	if locked {
		metrics.LockoutsTriggered.Inc()
		logger.Audit().Warn("lockout triggered",
			logger.Email(util.MaskEmail(email)),
			logger.Reason("failed_attempts"),
		)
	}
	metrics.LoginsTotal.WithLabelValues("invalid").Inc()
	return ErrInvalidCredentials
}

// maybeUpgradeHash re-hashea el password si los parámetros del PHC quedaron
// por debajo de los actuales. Best-effort: un CAS perdido contra otro update
// concurrente se ignora.
func (s *Service) maybeUpgradeHash(ctx context.Context, log *zap.Logger, user *repository.User, plain string) {
	if !s.deps.Hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	newHash, err := s.deps.Hasher.Hash(ctx, plain)
	if err != nil {
		log.Warn("hash upgrade failed", logger.Err(err))
		return
	}
	if err := s.deps.Users.UpdatePassword(ctx, user.ID, newHash, user.CredentialVersion); err != nil {
		if !errors.Is(err, repository.ErrVersionMismatch) {
			log.Warn("hash upgrade persist failed", logger.Err(err))
		}
		return
	}
	log.Info("password hash upgraded", logger.UserID(user.ID))
}
