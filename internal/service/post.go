// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never a concrete *sqlite.DB or
// *postgres.DB, so either backend (or an in-memory fake in tests) plugs in.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/model"
	"github.com/sakif/social-platform/internal/repository"
)

const (
	MaxTitleLength = 200
	DefaultPage    = 1
	DefaultLimit   = 20
)

// Client-facing messages of the post flow.
const (
	MsgPostFieldsRequired = "Заголовок и содержимое поста обязательны"
	MsgTitleTooLong       = "Заголовок не должен превышать 200 символов"
	MsgForbidden          = "Доступ запрещен"
)

// PostService handles business logic for posts, including the rule that
// only a post's author may change or delete it.
type PostService struct {
	repo     repository.PostRepository
	maxLimit int
	logger   *slog.Logger
}

// NewPostService creates a PostService. maxLimit caps the page size of
// List; 0 means no cap.
func NewPostService(repo repository.PostRepository, maxLimit int, logger *slog.Logger) *PostService {
	return &PostService{
		repo:     repo,
		maxLimit: max(maxLimit, 0),
		logger:   logger,
	}
}

// Create validates and saves a new post owned by authorID.
func (s *PostService) Create(ctx context.Context, authorID, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("", MsgPostFieldsRequired)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title", MsgTitleTooLong)
	}

	post := &model.Post{
		Title:    title,
		Content:  content,
		AuthorID: authorID,
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/post: creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("authorID", authorID),
	)

	return post, nil
}

// List returns one page of posts, newest first.
//
// page and limit below 1 fall back to DefaultPage and DefaultLimit. A page
// past the end is not an error: it yields empty Data with the real totals.
func (s *PostService) List(ctx context.Context, page, limit int) (*model.PostPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}

	posts, total, err := s.repo.ListPosts(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service/post: listing posts: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}

	return &model.PostPage{
		Data: posts,
		Meta: model.PageMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/post: getting post %s: %w", id, err)
	}
	return post, nil
}

// Update applies patch to the post if callerID is its author.
//
// Existence is checked before ownership: a missing post is 404 for every
// caller. Empty patch fields leave the stored value unchanged, so a field
// cannot be cleared through this method.
func (s *PostService) Update(ctx context.Context, id, callerID string, patch model.PostPatch) (*model.Post, error) {
	post, err := s.owned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(patch.Title); title != "" {
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title", MsgTitleTooLong)
		}
		post.Title = title
	}
	if strings.TrimSpace(patch.Content) != "" {
		post.Content = patch.Content
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/post: updating post %s: %w", id, err)
	}

	s.logger.Info("post updated", slog.String("id", id), slog.String("authorID", callerID))
	return post, nil
}

// Delete removes the post if callerID is its author.
func (s *PostService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.owned(ctx, id, callerID); err != nil {
		return err
	}

	if err := s.repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/post: deleting post %s: %w", id, err)
	}

	s.logger.Info("post deleted", slog.String("id", id), slog.String("authorID", callerID))
	return nil
}

// owned loads the post and checks that callerID wrote it.
func (s *PostService) owned(ctx context.Context, id, callerID string) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		s.logger.Warn("post mutation by non-author",
			slog.String("id", id),
			slog.String("callerID", callerID),
		)
		return nil, apperror.Forbidden(MsgForbidden)
	}
	return post, nil
}
