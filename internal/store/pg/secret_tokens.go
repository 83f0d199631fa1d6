package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
)

// SecretTokenRepo implementa repository.SecretTokenRepository sobre PostgreSQL.
type SecretTokenRepo struct{ pool *pgxpool.Pool }

func (r *SecretTokenRepo) Create(ctx context.Context, in repository.CreateSecretTokenInput) (*repository.SecretToken, error) {
	if !in.Purpose.IsValid() {
		return nil, repository.ErrInvalidInput
	}

	// Invariante: un solo token vivo por usuario y propósito. El nuevo
	// invalida cualquier anterior.
	_, err := r.pool.Exec(ctx, `
		UPDATE secret_token SET used_at = NOW()
		WHERE user_id = $1 AND purpose = $2 AND used_at IS NULL`,
		in.UserID, string(in.Purpose))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tok := &repository.SecretToken{
		UserID:    in.UserID,
		Purpose:   in.Purpose,
		TokenHash: in.TokenHash,
		ExpiresAt: now.Add(in.TTL),
		CreatedAt: now,
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO secret_token (user_id, purpose, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.UserID, string(in.Purpose), in.TokenHash, tok.ExpiresAt, now,
	).Scan(&tok.ID)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Consume es el check-and-clear atómico: un único UPDATE condicional marca
// el token como usado y devuelve el owner. De dos consumos concurrentes del
// mismo hash solo uno ve la fila con used_at IS NULL.
func (r *SecretTokenRepo) Consume(ctx context.Context, tokenHash string, purpose repository.SecretTokenPurpose) (string, error) {
	var userID string
	err := r.pool.QueryRow(ctx, `
		UPDATE secret_token SET used_at = NOW()
		WHERE token_hash = $1 AND purpose = $2 AND used_at IS NULL AND expires_at > NOW()
		RETURNING user_id`,
		tokenHash, string(purpose),
	).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	// Falló el consumo: ¿existe pero está usado/expirado?
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM secret_token WHERE token_hash = $1 AND purpose = $2)`,
		tokenHash, string(purpose)).Scan(&exists); err != nil {
		return "", err
	}
	if exists {
		return "", repository.ErrTokenExpired
	}
	return "", repository.ErrNotFound
}

func (r *SecretTokenRepo) InvalidateForUser(ctx context.Context, userID string, purpose repository.SecretTokenPurpose) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE secret_token SET used_at = NOW()
		WHERE user_id = $1 AND purpose = $2 AND used_at IS NULL`,
		userID, string(purpose))
	return err
}

func (r *SecretTokenRepo) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM secret_token WHERE expires_at <= NOW() OR used_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
