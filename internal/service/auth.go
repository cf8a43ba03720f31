// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Validate registration and login input
//   - Keep usernames and emails unique
//   - Hash passwords, verify them, issue bearer tokens
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/auth"
	"github.com/sakif/social-platform/internal/model"
	"github.com/sakif/social-platform/internal/repository"
)

// Validation limits for user records.
const (
	MinPasswordLength = 6
	MaxUsernameLength = 50
	MaxEmailLength    = 100
)

// Client-facing messages of the auth flow.
const (
	MsgFillAllFields      = "Заполните все поля"
	MsgPasswordTooShort   = "Пароль должен быть минимум 6 символов"
	MsgPasswordTooLong    = "Пароль не должен превышать 72 байта"
	MsgPasswordInvalid    = "Недопустимый пароль"
	MsgUsernameTooLong    = "Имя пользователя не должно превышать 50 символов"
	MsgEmailTooLong       = "Email не должен превышать 100 символов"
	MsgEnterCredentials   = "Введите логин и пароль"
	MsgInvalidCredentials = "Неверные данные"
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	// decoyOnce/decoyHash give Login a digest to compare against when the
	// account does not exist, so both failure paths cost one bcrypt run.
	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account and returns it with a fresh token.
//
// Order matters: input checks, then the uniqueness pre-check, then the
// (slow) hash, then the insert. The insert can still report a conflict when
// a concurrent registration wins the race; that is mapped the same way.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", MsgFillAllFields)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", MsgPasswordTooShort)
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password", MsgPasswordTooLong)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username", MsgUsernameTooLong)
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email", MsgEmailTooLong)
	}

	_, err := s.users.FindUserByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(repository.MsgUserExists)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking existing user: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrAlreadyHashed) {
			return nil, apperror.ValidationFailed("password", MsgPasswordInvalid)
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by username or email.
//
// An unknown account and a wrong password produce the same error, so the
// response never reveals which usernames exist.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.ValidationFailed("", MsgEnterCredentials)
	}
	// No stored password can be longer than bcrypt accepts.
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	user, err := s.users.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.burnDecoy(password)
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	ok, err := s.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.ID, err)
	}
	if !ok {
		s.logger.Info("login rejected", slog.String("userID", user.ID))
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	// The hash has done its job; nothing downstream needs it.
	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the caller's own record. The middleware already checked
// the user exists, but the row can vanish between the two reads.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: loading profile %s: %w", userID, err)
	}
	return user, nil
}

func (s *AuthService) burnDecoy(password string) {
	s.decoyOnce.Do(func() {
		h, err := s.passwords.Hash("decoy-password")
		if err != nil {
			s.logger.Error("building decoy hash", slog.String("error", err.Error()))
			return
		}
		s.decoyHash = h
	})
	if s.decoyHash == "" {
		return
	}
	_, _ = s.passwords.Verify(s.decoyHash, password)
}
