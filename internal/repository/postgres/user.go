package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/model"
	"github.com/sakif/social-platform/internal/repository"
)

// CreateUser inserts a new user. A unique violation on username or email
// becomes apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	// Postgres keeps microseconds; truncate so the caller's copy matches
	// what a later read returns.
	now := time.Now().UTC().Truncate(time.Microsecond)
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(repository.MsgUserExists)
		}
		return fmt.Errorf("postgres: inserting user %q: %w", u.Username, err)
	}

	return nil
}

func (db *DB) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var u model.User

	err := db.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at, updated_at
		 FROM users
		 WHERE username = $1 OR email = $2
		 LIMIT 1`,
		username, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgUserNotFound)
		}
		return nil, fmt.Errorf("postgres: finding user by username or email: %w", err)
	}

	return &u, nil
}

// GetUserByLogin resolves identifier as a username first, then as an
// email, and loads the password hash.
func (db *DB) GetUserByLogin(ctx context.Context, identifier string) (*model.User, error) {
	var u model.User

	err := db.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY (username = $1) DESC
		 LIMIT 1`,
		identifier,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgUserNotFound)
		}
		return nil, fmt.Errorf("postgres: getting user by login: %w", err)
	}

	return &u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgUserNotFound)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}

	return &u, nil
}
