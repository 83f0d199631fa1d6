// Package memory implementa los repositorios de dominio in-process.
// Se usa cuando no hay DSN configurado (dev) y como doble de test: respeta
// los mismos contratos de atomicidad que el adapter de PostgreSQL.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/domain/types"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]repository.User // por ID
	emails map[string]string          // email normalizado -> ID
	tokens map[string]repository.SecretToken
}

func New() *Store {
	return &Store{
		users:  make(map[string]repository.User),
		emails: make(map[string]string),
		tokens: make(map[string]repository.SecretToken),
	}
}

func (s *Store) Users() *UserRepo               { return &UserRepo{s: s} }
func (s *Store) SecretTokens() *SecretTokenRepo { return &SecretTokenRepo{s: s} }

type UserRepo struct{ s *Store }

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.emails[repository.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *UserRepo) GetByID(_ context.Context, userID string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := repository.NormalizeEmail(in.Email)
	if _, exists := r.s.emails[email]; exists {
		return nil, repository.ErrConflict
	}
	now := time.Now().UTC()
	u := repository.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Active:       true,
		GivenName:    in.GivenName,
		FamilyName:   in.FamilyName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[u.ID] = u
	r.s.emails[email] = u.ID
	return &u, nil
}

func (r *UserRepo) SetEmailVerified(_ context.Context, userID string) error {
	return r.mutate(userID, func(u repository.User) repository.User {
		return u.Verified(time.Now().UTC())
	})
}

func (r *UserRepo) UpdatePassword(_ context.Context, userID, newHash string, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.CredentialVersion != expectedVersion {
		return repository.ErrVersionMismatch
	}
	r.s.users[userID] = u.WithPassword(newHash, time.Now().UTC())
	return nil
}

func (r *UserRepo) SetRole(_ context.Context, userID string, role types.Role) error {
	return r.mutate(userID, func(u repository.User) repository.User {
		return u.WithRole(role, time.Now().UTC())
	})
}

func (r *UserRepo) Deactivate(_ context.Context, userID string) error {
	return r.mutate(userID, func(u repository.User) repository.User {
		return u.Deactivated(time.Now().UTC())
	})
}

func (r *UserRepo) mutate(userID string, fn func(repository.User) repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	r.s.users[userID] = fn(u)
	return nil
}

type SecretTokenRepo struct{ s *Store }

func (r *SecretTokenRepo) Create(_ context.Context, in repository.CreateSecretTokenInput) (*repository.SecretToken, error) {
	if !in.Purpose.IsValid() {
		return nil, repository.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	// invalidar tokens vivos del mismo usuario/propósito
	for h, t := range r.s.tokens {
		if t.UserID == in.UserID && t.Purpose == in.Purpose && t.UsedAt == nil {
			used := now
			t.UsedAt = &used
			r.s.tokens[h] = t
		}
	}
	tok := repository.SecretToken{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Purpose:   in.Purpose,
		TokenHash: in.TokenHash,
		ExpiresAt: now.Add(in.TTL),
		CreatedAt: now,
	}
	r.s.tokens[in.TokenHash] = tok
	return &tok, nil
}

func (r *SecretTokenRepo) Consume(_ context.Context, tokenHash string, purpose repository.SecretTokenPurpose) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok || t.Purpose != purpose {
		return "", repository.ErrNotFound
	}
	now := time.Now().UTC()
	if t.UsedAt != nil || !t.ExpiresAt.After(now) {
		return "", repository.ErrTokenExpired
	}
	t.UsedAt = &now
	r.s.tokens[tokenHash] = t
	return t.UserID, nil
}

func (r *SecretTokenRepo) InvalidateForUser(_ context.Context, userID string, purpose repository.SecretTokenPurpose) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	for h, t := range r.s.tokens {
		if t.UserID == userID && t.Purpose == purpose && t.UsedAt == nil {
			t.UsedAt = &now
			r.s.tokens[h] = t
		}
	}
	return nil
}

func (r *SecretTokenRepo) DeleteExpired(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	n := 0
	for h, t := range r.s.tokens {
		if !t.ExpiresAt.After(now) || t.UsedAt != nil {
			delete(r.s.tokens, h)
			n++
		}
	}
	return n, nil
}
