package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"putrace/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (author_id, text, visibility, group_ids, start_at, end_at, tags, allowed_user_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		post.AuthorID,
		post.Text,
		post.Visibility,
		post.GroupIDs,
		post.StartAt,
		post.EndAt,
		post.Tags,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET text = $3, visibility = $4, group_ids = $5, start_at = $6, end_at = $7, tags = $8, updated_at = NOW()
		WHERE id = $1 AND author_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		post.ID,
		post.AuthorID,
		post.Text,
		post.Visibility,
		post.GroupIDs,
		post.StartAt,
		post.EndAt,
		post.Tags,
	).Scan(&post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ErrPostNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `
		SELECT id, author_id, text, visibility, group_ids, start_at, end_at, tags, allowed_user_ids, created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	var p model.Post
	err := r.db.GetContext(ctx, &p, query, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// SetAllowedUserIDs overwrites the derived audience field. Concurrent
// resolutions of the same post are last-write-wins.
func (r *postRepository) SetAllowedUserIDs(ctx context.Context, postID int64, userIDs []int64) error {
	query := `UPDATE posts SET allowed_user_ids = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, postID, pq.Array(userIDs))
	if err != nil {
		return fmt.Errorf("set allowed user ids: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set allowed user ids rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// FindOverlapping returns posts by the given authors whose window intersects
// [start, end] inclusively: start_at <= end AND end_at >= start.
func (r *postRepository) FindOverlapping(ctx context.Context, authorIDs []int64, start, end time.Time) ([]model.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, author_id, text, visibility, group_ids, start_at, end_at, tags, allowed_user_ids, created_at, updated_at
		FROM posts
		WHERE author_id = ANY($1)
		  AND start_at IS NOT NULL AND end_at IS NOT NULL
		  AND start_at <= $2 AND end_at >= $3
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(authorIDs), end, start)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("find overlapping posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthorAndGroup(ctx context.Context, authorID int64, groupID string) ([]model.Post, error) {
	query := `
		SELECT id, author_id, text, visibility, group_ids, start_at, end_at, tags, allowed_user_ids, created_at, updated_at
		FROM posts
		WHERE author_id = $1 AND visibility = $2 AND $3 = ANY(group_ids)
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, authorID, model.VisibilityCustom, groupID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("list posts by group: %w", err)
	}
	return posts, nil
}
