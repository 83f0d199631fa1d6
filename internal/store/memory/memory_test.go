package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/domain/types"
	"github.com/dropDatabas3/authcore/internal/store/memory"
)

func createUser(t *testing.T, s *memory.Store, email string) *repository.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Role:         types.RoleStaff,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := memory.New()
	createUser(t, s, "alice@example.com")

	_, err := s.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        "ALICE@example.com", // misma dirección, distinta capitalización
		PasswordHash: "x",
		Role:         types.RoleStaff,
	})
	if !repository.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestUpdatePasswordCAS(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	if err := s.Users().UpdatePassword(ctx, u.ID, "hash2", u.CredentialVersion); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	// segundo update con la versión vieja pierde el CAS
	err := s.Users().UpdatePassword(ctx, u.ID, "hash3", u.CredentialVersion)
	if !errors.Is(err, repository.ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}

	got, _ := s.Users().GetByID(ctx, u.ID)
	if got.PasswordHash != "hash2" {
		t.Fatalf("hash = %q, el perdedor del CAS no debe escribir", got.PasswordHash)
	}
	if got.CredentialVersion != u.CredentialVersion+1 {
		t.Fatalf("version = %d", got.CredentialVersion)
	}
}

func TestSecretTokenSingleUse(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	_, err := s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID:    u.ID,
		Purpose:   repository.PurposePasswordReset,
		TokenHash: "digest-1",
		TTL:       time.Hour,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	userID, err := s.SecretTokens().Consume(ctx, "digest-1", repository.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if userID != u.ID {
		t.Fatalf("userID = %q", userID)
	}

	// segundo consumo del mismo token falla
	if _, err := s.SecretTokens().Consume(ctx, "digest-1", repository.PurposePasswordReset); err == nil {
		t.Fatal("token consumido no puede consumirse de nuevo")
	}
}

func TestSecretTokenConcurrentConsume(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	_, err := s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID:    u.ID,
		Purpose:   repository.PurposePasswordReset,
		TokenHash: "digest-race",
		TTL:       time.Hour,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// N goroutines compiten por el mismo digest: exactamente una gana
	const n = 16
	var wg sync.WaitGroup
	var wins int32
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.SecretTokens().Consume(ctx, "digest-race", repository.PurposePasswordReset); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("consumos exitosos = %d, want 1", wins)
	}
}

func TestSecretTokenWrongPurpose(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	_, _ = s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID:    u.ID,
		Purpose:   repository.PurposeEmailVerification,
		TokenHash: "digest-v",
		TTL:       time.Hour,
	})
	if _, err := s.SecretTokens().Consume(ctx, "digest-v", repository.PurposePasswordReset); err == nil {
		t.Fatal("un token de verificación no sirve para reset")
	}
}

func TestSecretTokenExpired(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	_, _ = s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID:    u.ID,
		Purpose:   repository.PurposePasswordReset,
		TokenHash: "digest-exp",
		TTL:       -time.Minute, // nace vencido
	})
	_, err := s.SecretTokens().Consume(ctx, "digest-exp", repository.PurposePasswordReset)
	if !errors.Is(err, repository.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestSecretTokenSupersede(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	_, _ = s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID: u.ID, Purpose: repository.PurposePasswordReset, TokenHash: "first", TTL: time.Hour,
	})
	_, _ = s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID: u.ID, Purpose: repository.PurposePasswordReset, TokenHash: "second", TTL: time.Hour,
	})

	// el primero quedó invalidado por el segundo
	if _, err := s.SecretTokens().Consume(ctx, "first", repository.PurposePasswordReset); err == nil {
		t.Fatal("el token superseded no debe consumirse")
	}
	if _, err := s.SecretTokens().Consume(ctx, "second", repository.PurposePasswordReset); err != nil {
		t.Fatalf("Consume second: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	_, _ = s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID: u.ID, Purpose: repository.PurposePasswordReset, TokenHash: "dead", TTL: -time.Minute,
	})
	_, _ = s.SecretTokens().Create(ctx, repository.CreateSecretTokenInput{
		UserID: u.ID, Purpose: repository.PurposeEmailVerification, TokenHash: "alive", TTL: time.Hour,
	})

	n, err := s.SecretTokens().DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if _, err := s.SecretTokens().Consume(ctx, "alive", repository.PurposeEmailVerification); err != nil {
		t.Fatalf("el token vivo debería seguir: %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	s := memory.New()
	u := createUser(t, s, "alice@example.com")
	ctx := context.Background()

	if err := s.Users().Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, _ := s.Users().GetByID(ctx, u.ID)
	if got.Active {
		t.Fatal("sigue activo")
	}

	if err := s.Users().Deactivate(ctx, "no-such-id"); !repository.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
