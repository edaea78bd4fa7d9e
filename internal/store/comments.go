package store

import (
	"context"
	"fmt"

	"snapfeed-backend/internal/models"
)

// CommentStore handles database operations for comments
type CommentStore struct {
	db DB
}

// NewCommentStore creates a new comment store
func NewCommentStore(db DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create creates a new comment. Returns ErrNotFound when the referenced
// post does not exist.
func (s *CommentStore) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query,
		comment.ID, comment.PostID, comment.UserID, comment.Body, comment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("post %s: %w", comment.PostID, ErrNotFound)
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByPost retrieves a post's comments in ascending created_at order
func (s *CommentStore) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	query := `
		SELECT id, post_id, user_id, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(&comment.ID, &comment.PostID, &comment.UserID, &comment.Body, &comment.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}
