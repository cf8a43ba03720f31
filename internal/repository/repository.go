// Package repository defines the storage contracts the services depend on.
//
// Implementations live in subpackages (sqlite, postgres). Every
// implementation maps "no such row" to apperror.ErrNotFound and a
// uniqueness violation to apperror.ErrConflict, so services never see
// driver errors for those cases.
package repository

import (
	"context"

	"github.com/sakif/social-platform/internal/model"
)

// Client-facing messages shared by every backend.
const (
	MsgUserNotFound = "Пользователь не найден"
	MsgUserExists   = "Пользователь уже существует"
	MsgPostNotFound = "Пост не найден"
)

// ListOptions selects one page of a listing.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user identity records.
type UserRepository interface {
	// CreateUser assigns ID and timestamps, then inserts u. A username or
	// email already taken yields apperror.ErrConflict.
	CreateUser(ctx context.Context, u *model.User) error

	// FindUserByUsernameOrEmail returns any user whose username equals
	// username or whose email equals email.
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)

	// GetUserByLogin resolves identifier against username, then email.
	// It is the only read that fills PasswordHash.
	GetUserByLogin(ctx context.Context, identifier string) (*model.User, error)

	// GetUserByID returns the user without PasswordHash.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// PostRepository persists posts. Ownership is not checked here.
type PostRepository interface {
	CreatePost(ctx context.Context, p *model.Post) error

	// ListPosts returns one page ordered newest first, plus the total
	// number of posts.
	ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, int, error)

	GetPostByID(ctx context.Context, id string) (*model.Post, error)

	// UpdatePost writes Title and Content and refreshes UpdatedAt.
	UpdatePost(ctx context.Context, p *model.Post) error

	DeletePost(ctx context.Context, id string) error
}

// Store is a complete backend as the server wires it.
type Store interface {
	UserRepository
	PostRepository
	Ping(ctx context.Context) error
	Close() error
}
