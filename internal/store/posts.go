package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapfeed-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// PostStore handles database operations for posts and their like sets
type PostStore struct {
	db DB
}

// NewPostStore creates a new post store
func NewPostStore(db DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `
	p.id, p.user_id, p.title, p.caption, p.image_url, p.image_key, p.created_at,
	COALESCE(array_agg(l.user_id::text) FILTER (WHERE l.user_id IS NOT NULL), '{}')
`

// Create creates a new post
func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, title, caption, image_url, image_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		post.ID, post.UserID, post.Title, post.Caption, post.ImageURL, post.ImageKey, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID, including its liker set
func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN post_likes l ON l.post_id = p.id
		WHERE p.id = $1
		GROUP BY p.id
	`
	var post models.Post
	err := s.db.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.UserID, &post.Title, &post.Caption,
		&post.ImageURL, &post.ImageKey, &post.CreatedAt, &post.Likes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// ListAll retrieves all posts, newest first
func (s *PostStore) ListAll(ctx context.Context) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN post_likes l ON l.post_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListByUser retrieves a user's posts, newest first
func (s *PostStore) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN post_likes l ON l.post_id = p.id
		WHERE p.user_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by user: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows pgx.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(
			&post.ID, &post.UserID, &post.Title, &post.Caption,
			&post.ImageURL, &post.ImageKey, &post.CreatedAt, &post.Likes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// Delete deletes a post. Comments and likes go with it via FK cascade.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// Like adds userID to the post's like set. The insert is conditional at
// the database so two racing likers cannot produce a duplicate entry or
// lose each other's update. Returns ErrAlreadyLiked when userID is
// already in the set.
func (s *PostStore) Like(ctx context.Context, postID, userID string) error {
	query := `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query, postID, userID, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return fmt.Errorf("failed to like post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s user %s: %w", postID, userID, ErrAlreadyLiked)
	}
	return nil
}

// HasLiked reports whether userID is in the post's like set
func (s *PostStore) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`
	var liked bool
	if err := s.db.QueryRow(ctx, query, postID, userID).Scan(&liked); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}
