package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	"github.com/dropDatabas3/authcore/internal/domain/types"
)

// UserRepo implementa repository.UserRepository sobre PostgreSQL.
type UserRepo struct{ pool *pgxpool.Pool }

const userCols = `id, email, password_hash, role, active, email_verified,
	credential_version, given_name, family_name, created_at, updated_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.Active, &u.EmailVerified,
		&u.CredentialVersion, &u.GivenName, &u.FamilyName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Role = types.Role(role)
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM user_account WHERE LOWER(email) = LOWER($1)`,
		repository.NormalizeEmail(email))
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM user_account WHERE id = $1`, userID)
	return scanUser(row)
}

func (r *UserRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_account (email, password_hash, role, given_name, family_name)
		VALUES (LOWER($1), $2, $3, $4, $5)
		RETURNING `+userCols,
		repository.NormalizeEmail(in.Email), in.PasswordHash, string(in.Role), in.GivenName, in.FamilyName)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) SetEmailVerified(ctx context.Context, userID string) error {
	return r.exec(ctx,
		`UPDATE user_account SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
}

// UpdatePassword reemplaza el digest completo con compare-and-swap sobre
// credential_version: serializa reset vs change-password entre instancias
// sin mutex de aplicación.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID, newHash string, expectedVersion int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_account
		SET password_hash = $1, credential_version = credential_version + 1, updated_at = NOW()
		WHERE id = $2 AND credential_version = $3`,
		newHash, userID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// distinguir: no existe vs versión desactualizada
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM user_account WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrVersionMismatch
	}
	return nil
}

func (r *UserRepo) SetRole(ctx context.Context, userID string, role types.Role) error {
	return r.exec(ctx,
		`UPDATE user_account SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), userID)
}

func (r *UserRepo) Deactivate(ctx context.Context, userID string) error {
	return r.exec(ctx,
		`UPDATE user_account SET active = FALSE, updated_at = NOW() WHERE id = $1`, userID)
}

func (r *UserRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
