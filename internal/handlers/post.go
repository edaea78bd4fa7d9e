package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"snapfeed-backend/internal/middleware"
	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/services"
	"snapfeed-backend/internal/storage"
	"snapfeed-backend/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 10 << 20 // 10 MB

// PostHandler handles post and engagement HTTP requests
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// Feed handles GET /api/v1/feed
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.Feed(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feed")
		respondError(w, "failed to load feed", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"posts": posts}, http.StatusOK)
}

// Profile handles GET /api/v1/profile
func (h *PostHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	posts, err := h.postService.Profile(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to load profile")
		respondError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"posts": posts}, http.StatusOK)
}

// GetPost handles GET /api/v1/posts/{post_id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "post_id")

	post, err := h.postService.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, "post not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("post_id", postID).Msg("Failed to get post")
		respondError(w, "failed to get post", http.StatusInternalServerError)
		return
	}

	comments, err := h.postService.Comments(r.Context(), postID)
	if err != nil {
		log.Error().Err(err).Str("post_id", postID).Msg("Failed to load comments")
		respondError(w, "failed to load comments", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"post":     post,
		"comments": comments,
	}
	if user := middleware.CurrentUser(r.Context()); user != nil {
		liked, err := h.postService.HasLiked(r.Context(), postID, user.ID)
		if err == nil {
			response["liked"] = liked
		}
	}
	respondJSON(w, response, http.StatusOK)
}

// CreatePost handles POST /api/v1/posts (multipart form: title, caption, image)
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		respondError(w, "title is required", http.StatusBadRequest)
		return
	}

	post, err := h.postService.CreatePost(
		r.Context(),
		user.ID,
		title,
		r.FormValue("caption"),
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			respondError(w, "file type is not supported", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create post")
		respondError(w, "failed to create post", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", user.ID).Str("post_id", post.ID).Msg("Post created")
	respondJSON(w, post, http.StatusCreated)
}

// DeletePost handles DELETE /api/v1/posts/{post_id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	postID := chi.URLParam(r, "post_id")

	err := h.postService.DeletePost(r.Context(), postID, user.ID)
	switch {
	case err == nil:
		log.Info().Str("user_id", user.ID).Str("post_id", postID).Msg("Post deleted")
		respondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, "post not found", http.StatusNotFound)
	case errors.Is(err, services.ErrNotOwner):
		respondError(w, "not the post owner", http.StatusForbidden)
	default:
		log.Error().Err(err).Str("post_id", postID).Msg("Failed to delete post")
		respondError(w, "failed to delete post", http.StatusInternalServerError)
	}
}

// Like handles POST /api/v1/posts/{post_id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	postID := chi.URLParam(r, "post_id")

	err := h.postService.Like(r.Context(), postID, user.ID)
	switch {
	case err == nil:
		respondJSON(w, map[string]string{"status": "liked"}, http.StatusOK)
	case errors.Is(err, store.ErrAlreadyLiked):
		respondError(w, "already liked", http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, "post not found", http.StatusNotFound)
	default:
		log.Error().Err(err).Str("post_id", postID).Str("user_id", user.ID).Msg("Failed to like post")
		respondError(w, "failed to like post", http.StatusInternalServerError)
	}
}

// AddComment handles POST /api/v1/posts/{post_id}/comments
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	postID := chi.URLParam(r, "post_id")

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		respondError(w, "comment body is required", http.StatusBadRequest)
		return
	}

	comment, err := h.postService.AddComment(r.Context(), postID, user.ID, req.Body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, "post not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("post_id", postID).Msg("Failed to add comment")
		respondError(w, "failed to add comment", http.StatusInternalServerError)
		return
	}
	respondJSON(w, comment, http.StatusCreated)
}

// ListComments handles GET /api/v1/posts/{post_id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "post_id")

	comments, err := h.postService.Comments(r.Context(), postID)
	if err != nil {
		log.Error().Err(err).Str("post_id", postID).Msg("Failed to list comments")
		respondError(w, "failed to list comments", http.StatusInternalServerError)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	respondJSON(w, map[string]any{"comments": comments}, http.StatusOK)
}
