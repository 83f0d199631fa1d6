package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/domain/types"
	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	tokens "github.com/dropDatabas3/authcore/internal/security/token"
)

// Register crea la cuenta, dispara la verificación de email y autentica de
// entrada (decisión de política: la verificación no gatea el login).
func (s *Service) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
	)

	// Paso 0: normalización y validación de forma
	in.Email = repository.NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if !strings.Contains(in.Email, "@") || strings.ContainsAny(in.Email, " \t") {
		return nil, ErrMissingFields
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		return nil, &WeakPasswordError{Reasons: reasons}
	}

	// Paso 1: hash del password (nunca se loguea el plaintext)
	hash, err := s.deps.Hasher.Hash(ctx, in.Password)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return nil, err
	}

	// Paso 2: crear usuario (activo, sin verificar). La unicidad del email
	// la garantiza el store.
	user, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         types.RoleStaff,
		GivenName:    strings.TrimSpace(in.GivenName),
		FamilyName:   strings.TrimSpace(in.FamilyName),
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	log = log.With(logger.UserID(user.ID))

	// Paso 3: secret token de verificación + notificación. El envío es
	// best-effort: si el SMTP falla, la cuenta ya existe y el usuario puede
	// pedir el reenvío; no abortamos el registro.
	if err := s.sendVerification(ctx, user); err != nil {
		log.Warn("verification email failed", logger.Err(err))
	}

	// Paso 4: tokens iniciales
	access, refresh, expiresIn, err := s.issueTokens(user)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, err
	}

	log.Info("user registered")
	return &dto.RegisterResponse{
		User:         dto.NewUserView(user),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}, nil
}

// sendVerification genera el secret token (solo el digest toca la DB) y
// envía el link. Un request nuevo invalida el token anterior.
func (s *Service) sendVerification(ctx context.Context, user *repository.User) error {
	plain, err := tokens.GenerateOpaqueToken(tokens.DefaultBytes)
	if err != nil {
		return err
	}
	if _, err := s.deps.Tokens.Create(ctx, repository.CreateSecretTokenInput{
		UserID:    user.ID,
		Purpose:   repository.PurposeEmailVerification,
		TokenHash: tokens.SHA256Base64URL(plain),
		TTL:       s.deps.VerifyTTL,
	}); err != nil {
		return err
	}
	return s.deps.Flows.SendVerification(ctx, user.Email, plain, s.deps.VerifyTTL)
}

// issueTokens emite el par access+refresh para el usuario.
func (s *Service) issueTokens(user *repository.User) (access, refresh string, expiresIn int64, err error) {
	access, _, err = s.deps.Issuer.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		return "", "", 0, err
	}
	refresh, _, err = s.deps.Issuer.IssueRefresh(user.ID)
	if err != nil {
		return "", "", 0, err
	}
	return access, refresh, int64(s.deps.Issuer.AccessTTL.Seconds()), nil
}
