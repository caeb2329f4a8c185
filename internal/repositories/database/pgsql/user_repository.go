package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxUserRepository struct {
	db *pgxpool.Pool
}

func NewPgxUserRepository(db *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{db: db}
}

// Ensure PgxUserRepository implements the facade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const userColumns = `
	user_id, first_name, last_name, email, password_hash, role,
	reset_code_hash, reset_code_expires, is_code_verified,
	created_at, last_updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.UserID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash, &user.Role,
		&user.ResetCodeHash, &user.ResetCodeExpires, &user.IsCodeVerified,
		&user.CreatedAt, &user.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
        INSERT INTO users (` + userColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
    `
	_, err := r.db.Exec(ctx, query,
		user.UserID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role,
		user.ResetCodeHash, user.ResetCodeExpires, user.IsCodeVerified,
		user.CreatedAt, user.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("email %s is already registered: %w", user.Email, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("%w: failed to save user: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find user by ID %s: %v", apperrors.ErrStorage, userID, err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find user by email: %v", apperrors.ErrStorage, err)
	}
	return user, nil
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	query := `
        UPDATE users
        SET first_name = $2, last_name = $3, email = $4, password_hash = $5, role = $6,
            reset_code_hash = $7, reset_code_expires = $8, is_code_verified = $9,
            last_updated_at = $10
        WHERE user_id = $1;
    `
	cmdTag, err := r.db.Exec(ctx, query,
		user.UserID,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role,
		user.ResetCodeHash, user.ResetCodeExpires, user.IsCodeVerified,
		user.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update user %s: %v", apperrors.ErrStorage, user.UserID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
