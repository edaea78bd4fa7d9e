package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePostStore keeps posts and like sets in memory. Like mirrors the
// real store's conditional insert: check and add happen under one lock.
type fakePostStore struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	likes map[string]map[string]bool
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{
		posts: make(map[string]*models.Post),
		likes: make(map[string]map[string]bool),
	}
}

func (f *fakePostStore) Create(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	f.likes[post.ID] = make(map[string]bool)
	return nil
}

func (f *fakePostStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, store.ErrNotFound)
	}
	copied := *post
	copied.Likes = make([]string, 0, len(f.likes[id]))
	for userID := range f.likes[id] {
		copied.Likes = append(copied.Likes, userID)
	}
	return &copied, nil
}

func (f *fakePostStore) ListAll(_ context.Context) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var posts []*models.Post
	for _, post := range f.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (f *fakePostStore) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	all, _ := f.ListAll(ctx)
	var posts []*models.Post
	for _, post := range all {
		if post.UserID == userID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, store.ErrNotFound)
	}
	delete(f.posts, id)
	delete(f.likes, id)
	return nil
}

func (f *fakePostStore) Like(_ context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.likes[postID]
	if !ok {
		return fmt.Errorf("post %s: %w", postID, store.ErrNotFound)
	}
	if set[userID] {
		return fmt.Errorf("post %s user %s: %w", postID, userID, store.ErrAlreadyLiked)
	}
	set[userID] = true
	return nil
}

func (f *fakePostStore) HasLiked(_ context.Context, postID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likes[postID][userID], nil
}

// fakeCommentStore lists comments sorted ascending by created_at,
// matching the store's ORDER BY contract.
type fakeCommentStore struct {
	mu       sync.Mutex
	comments []*models.Comment
}

func (f *fakeCommentStore) Create(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, comment)
	return nil
}

func (f *fakeCommentStore) ListByPost(_ context.Context, postID string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var comments []*models.Comment
	for _, comment := range f.comments {
		if comment.PostID == postID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

type fakeImageStore struct {
	destroyErr error
	destroyed  []string
}

func (f *fakeImageStore) Upload(_ context.Context, postID, filename, _ string, _ io.Reader) (string, string, error) {
	key := "posts/" + postID + strings.ToLower(filename[strings.LastIndex(filename, "."):])
	return "https://cdn.example.com/" + key, key, nil
}

func (f *fakeImageStore) Destroy(_ context.Context, key string) error {
	f.destroyed = append(f.destroyed, key)
	return f.destroyErr
}

type fakeNotifier struct {
	mu       sync.Mutex
	likes    []string
	comments []string
}

func (f *fakeNotifier) NotifyPostLiked(ownerID, postID, likerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes = append(f.likes, ownerID+":"+postID+":"+likerID)
}

func (f *fakeNotifier) NotifyCommentAdded(ownerID string, comment *models.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, ownerID+":"+comment.ID)
}

func newTestService(t *testing.T) (*PostService, *fakePostStore, *fakeCommentStore, *fakeImageStore, *fakeNotifier) {
	t.Helper()
	posts := newFakePostStore()
	comments := &fakeCommentStore{}
	images := &fakeImageStore{}
	notifier := &fakeNotifier{}
	return NewPostService(posts, comments, images, notifier), posts, comments, images, notifier
}

func createTestPost(t *testing.T, svc *PostService, ownerID string) *models.Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), ownerID, "sunset", "golden hour", "img.jpg", "image/jpeg", strings.NewReader("bytes"))
	require.NoError(t, err)
	return post
}

func TestLikeTwiceRejectedWithoutMutation(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	post := createTestPost(t, svc, "owner")

	require.NoError(t, svc.Like(context.Background(), post.ID, "u1"))

	err := svc.Like(context.Background(), post.ID, "u1")
	assert.ErrorIs(t, err, store.ErrAlreadyLiked)

	got, err := svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Likes, "repeat like must not grow the set")
}

func TestConcurrentLikesDistinctUsers(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	post := createTestPost(t, svc, "owner")

	const likers = 32
	var wg sync.WaitGroup
	errs := make([]error, likers)
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Like(context.Background(), post.ID, fmt.Sprintf("user-%d", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "liker %d", i)
	}

	got, err := svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, likers, "every distinct liker lands exactly once")
}

func TestLikeNotifiesOwner(t *testing.T) {
	svc, _, _, _, notifier := newTestService(t)
	post := createTestPost(t, svc, "owner")

	require.NoError(t, svc.Like(context.Background(), post.ID, "u1"))
	assert.Equal(t, []string{"owner:" + post.ID + ":u1"}, notifier.likes)
}

func TestSelfLikeDoesNotNotify(t *testing.T) {
	svc, _, _, _, notifier := newTestService(t)
	post := createTestPost(t, svc, "owner")

	require.NoError(t, svc.Like(context.Background(), post.ID, "owner"))
	assert.Empty(t, notifier.likes)
}

func TestDeletePostDestroysImage(t *testing.T) {
	svc, _, _, images, _ := newTestService(t)
	post := createTestPost(t, svc, "owner")

	require.NoError(t, svc.DeletePost(context.Background(), post.ID, "owner"))
	assert.Equal(t, []string{post.ImageKey}, images.destroyed)

	_, err := svc.GetPost(context.Background(), post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeletePostProceedsWhenImageDeletionFails(t *testing.T) {
	svc, _, _, images, _ := newTestService(t)
	post := createTestPost(t, svc, "owner")

	images.destroyErr = errors.New("object store unavailable")

	require.NoError(t, svc.DeletePost(context.Background(), post.ID, "owner"))

	_, err := svc.GetPost(context.Background(), post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "post deletion is not blocked by the image store")
}

func TestDeletePostNotOwner(t *testing.T) {
	svc, _, _, images, _ := newTestService(t)
	post := createTestPost(t, svc, "owner")

	err := svc.DeletePost(context.Background(), post.ID, "intruder")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Empty(t, images.destroyed)

	_, err = svc.GetPost(context.Background(), post.ID)
	assert.NoError(t, err)
}

func TestAddCommentMissingPost(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.AddComment(context.Background(), "missing", "u1", "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommentsAscendingByCreatedAt(t *testing.T) {
	svc, _, comments, _, _ := newTestService(t)
	post := createTestPost(t, svc, "owner")

	// Insert out of order; listing must still come back ascending.
	base := time.Now()
	for _, offset := range []time.Duration{3 * time.Minute, time.Minute, 2 * time.Minute} {
		require.NoError(t, comments.Create(context.Background(), &models.Comment{
			ID:        fmt.Sprintf("c-%d", offset/time.Minute),
			PostID:    post.ID,
			UserID:    "u1",
			Body:      fmt.Sprintf("minute %d", offset/time.Minute),
			CreatedAt: base.Add(offset),
		}))
	}

	listed, err := svc.Comments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.True(t, sort.SliceIsSorted(listed, func(i, j int) bool {
		return listed[i].CreatedAt.Before(listed[j].CreatedAt)
	}))
	assert.Equal(t, "minute 1", listed[0].Body)
	assert.Equal(t, "minute 3", listed[2].Body)
}

func TestAddCommentAllowsDuplicates(t *testing.T) {
	svc, _, _, _, notifier := newTestService(t)
	post := createTestPost(t, svc, "owner")

	first, err := svc.AddComment(context.Background(), post.ID, "u1", "same text")
	require.NoError(t, err)
	second, err := svc.AddComment(context.Background(), post.ID, "u1", "same text")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	listed, err := svc.Comments(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Len(t, notifier.comments, 2)
}
