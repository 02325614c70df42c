package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"approvalhub.io/approvalhub/internal/domain"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
)

// UserRepository manages approver accounts.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

const userColumns = `id, username, display_name, password_hash, enabled, created_at`

// GetByUsername returns an enabled user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND enabled = TRUE`

	u, err := scanUser(r.db.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("USER_NOT_FOUND", "user not found")
	}
	return u, err
}

// GetByID returns a user by primary key regardless of enabled state.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("USER_NOT_FOUND", "user not found")
	}
	return u, err
}

// Create inserts a user and fills in the generated fields.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	const query = `
		INSERT INTO users (username, display_name, password_hash, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, u.Username, u.DisplayName, u.PasswordHash, u.Enabled).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("USER_ALREADY_EXISTS", "username is taken")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Enabled, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
