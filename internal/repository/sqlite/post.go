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

// CreatePost inserts a new post.
//
// ID GENERATION WITH xid:
// xid IDs are 20 chars, URL-safe and sortable by creation time, e.g.
// "cv37rs3pp9olc6atsptg". ListPosts uses the ID as a tie-breaker when two
// posts share a created_at value.
//
// The caller's post gets the generated ID and timestamps.
func (db *DB) CreatePost(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC()
	p.ID = xid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Title,
		p.Content,
		p.AuthorID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	return nil
}

// GetPostByID retrieves a single post by its ID.
// sql.ErrNoRows becomes apperror.ErrNotFound so the handler answers 404.
func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts
		 WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgPostNotFound)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	return &p, nil
}

// ListPosts returns one page of posts, newest first, and the total count.
//
// LIMIT/OFFSET pagination:
//
//	page 3 with 20 items per page → LIMIT 20 OFFSET 40
//
// An offset past the end yields an empty, non-nil slice.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(opts.Offset, 0)

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	// sql.Rows holds a pooled connection until closed. With a single
	// connection a leak here would hang every later query.
	defer rows.Close()

	posts := make([]model.Post, 0, min(limit, 100))
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Content, &p.AuthorID,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, total, nil
}

// UpdatePost writes title and content and refreshes updated_at.
// id, author_id and created_at are immutable.
//
// RowsAffected() == 0 means the WHERE clause matched nothing → not found.
func (db *DB) UpdatePost(ctx context.Context, p *model.Post) error {
	p.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, content = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title,
		p.Content,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", p.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(repository.MsgPostNotFound)
	}

	return nil
}

// DeletePost removes a post by its ID.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(repository.MsgPostNotFound)
	}

	return nil
}
