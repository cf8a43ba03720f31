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

func (db *DB) CreatePost(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.ID = xid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO posts (id, title, content, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Title, p.Content, p.AuthorID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating post: %w", err)
	}

	return nil
}

func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	err := db.pool.QueryRow(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound(repository.MsgPostNotFound)
		}
		return nil, fmt.Errorf("postgres: getting post %s: %w", id, err)
	}

	return &p, nil
}

// ListPosts returns one page newest first. COUNT(*) and the page query run
// separately; the total may be off by concurrent inserts.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(opts.Offset, 0)

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: counting posts: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: listing posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Post, error) {
		var p model.Post
		err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: scanning posts: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}

	return posts, total, nil
}

func (db *DB) UpdatePost(ctx context.Context, p *model.Post) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	tag, err := db.pool.Exec(ctx,
		`UPDATE posts SET title = $1, content = $2, updated_at = $3 WHERE id = $4`,
		p.Title, p.Content, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating post %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(repository.MsgPostNotFound)
	}

	return nil
}

func (db *DB) DeletePost(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(repository.MsgPostNotFound)
	}

	return nil
}
