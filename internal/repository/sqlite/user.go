package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/model"
	"github.com/sakif/social-platform/internal/repository"
)

// CreateUser inserts a new user.
//
// The UNIQUE constraints on username and email are the real guarantee.
// Two concurrent registrations can both pass the service's pre-check, but
// only one INSERT succeeds; the other is reported as a conflict here.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(repository.MsgUserExists)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", u.Username, err)
	}

	return nil
}

// FindUserByUsernameOrEmail returns the first user holding either value.
func (db *DB) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, created_at, updated_at
		 FROM users
		 WHERE username = ? OR email = ?
		 LIMIT 1`,
		username, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgUserNotFound)
		}
		return nil, fmt.Errorf("sqlite: finding user by username or email: %w", err)
	}

	return &u, nil
}

// GetUserByLogin resolves identifier as a username first, then as an email.
// The returned user includes PasswordHash.
func (db *DB) GetUserByLogin(ctx context.Context, identifier string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE username = ? OR email = ?
		 ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		 LIMIT 1`,
		identifier, identifier, identifier,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgUserNotFound)
		}
		return nil, fmt.Errorf("sqlite: getting user by login: %w", err)
	}

	return &u, nil
}

// GetUserByID retrieves a user by ID. PasswordHash is left empty.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgUserNotFound)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
