package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"snapfeed-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotOwner is returned when a caller tries to delete a post they do
// not own.
var ErrNotOwner = errors.New("not the post owner")

// PostStore is the storage surface for posts and their like sets.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, postID, userID string) error
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
}

// CommentStore is the storage surface for comments.
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
}

// ImageStore stores and removes post images.
type ImageStore interface {
	Upload(ctx context.Context, postID, filename, contentType string, body io.Reader) (url, key string, err error)
	Destroy(ctx context.Context, key string) error
}

// EngagementNotifier pushes engagement events to post owners. May be nil.
type EngagementNotifier interface {
	NotifyPostLiked(ownerID, postID, likerID string)
	NotifyCommentAdded(ownerID string, comment *models.Comment)
}

// PostService handles post and engagement business logic
type PostService struct {
	posts    PostStore
	comments CommentStore
	images   ImageStore
	notifier EngagementNotifier
}

// NewPostService creates a new post service
func NewPostService(posts PostStore, comments CommentStore, images ImageStore, notifier EngagementNotifier) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		images:   images,
		notifier: notifier,
	}
}

// CreatePost uploads the image and persists the post
func (s *PostService) CreatePost(ctx context.Context, ownerID, title, caption, filename, contentType string, body io.Reader) (*models.Post, error) {
	postID := uuid.New().String()

	url, key, err := s.images.Upload(ctx, postID, filename, contentType, body)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        postID,
		UserID:    ownerID,
		Title:     strings.TrimSpace(title),
		Caption:   strings.TrimSpace(caption),
		ImageURL:  url,
		ImageKey:  key,
		Likes:     []string{},
		CreatedAt: time.Now(),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// GetPost retrieves a single post
func (s *PostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

// Feed retrieves all posts, newest first
func (s *PostService) Feed(ctx context.Context) ([]*models.Post, error) {
	return s.posts.ListAll(ctx)
}

// Profile retrieves a user's posts, newest first
func (s *PostService) Profile(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.posts.ListByUser(ctx, userID)
}

// DeletePost deletes a post owned by callerID. The stored image is
// destroyed first; if that fails the post is still deleted and the
// failure is logged with the object key.
func (s *PostService) DeletePost(ctx context.Context, postID, callerID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != callerID {
		return fmt.Errorf("post %s: %w", postID, ErrNotOwner)
	}

	if err := s.images.Destroy(ctx, post.ImageKey); err != nil {
		log.Warn().
			Err(err).
			Str("post_id", postID).
			Str("image_key", post.ImageKey).
			Msg("Failed to delete post image, deleting post anyway")
	}

	return s.posts.Delete(ctx, postID)
}

// Like adds likerID to the post's like set. A repeat like surfaces
// store.ErrAlreadyLiked without mutation.
func (s *PostService) Like(ctx context.Context, postID, likerID string) error {
	if err := s.posts.Like(ctx, postID, likerID); err != nil {
		return err
	}

	if s.notifier != nil {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			log.Error().Err(err).Str("post_id", postID).Msg("Failed to load post for like notification")
		} else if post.UserID != likerID {
			s.notifier.NotifyPostLiked(post.UserID, postID, likerID)
		}
	}
	return nil
}

// HasLiked reports whether userID already liked the post
func (s *PostService) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	return s.posts.HasLiked(ctx, postID, userID)
}

// AddComment creates a comment on an existing post
func (s *PostService) AddComment(ctx context.Context, postID, authorID, body string) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    authorID,
		Body:      strings.TrimSpace(body),
		CreatedAt: time.Now(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.notifier != nil && post.UserID != authorID {
		s.notifier.NotifyCommentAdded(post.UserID, comment)
	}
	return comment, nil
}

// Comments retrieves a post's comments in ascending created_at order
func (s *PostService) Comments(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}
