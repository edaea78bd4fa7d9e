package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"snapfeed-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// EngagementEvent is pushed to a post owner when someone interacts with
// one of their posts.
type EngagementEvent struct {
	Type      string `json:"type"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
	Body      string `json:"body,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// EngagementHub manages the WebSocket connections engagement events are
// delivered over, one connection per user.
type EngagementHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewEngagementHub creates a new engagement hub
func NewEngagementHub() *EngagementHub {
	return &EngagementHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a WebSocket connection for a user, replacing any
// existing one.
func (h *EngagementHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("Engagement stream connected")
}

// Unregister removes a user's WebSocket connection
func (h *EngagementHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.connections[userID]; ok {
		conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("Engagement stream disconnected")
	}
}

// IsOnline checks if a user has a connected stream
func (h *EngagementHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// NotifyPostLiked pushes a post_liked event to the post owner
func (h *EngagementHub) NotifyPostLiked(ownerID, postID, likerID string) {
	event := EngagementEvent{
		Type:      "post_liked",
		PostID:    postID,
		UserID:    likerID,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := h.send(ownerID, event); err != nil {
		log.Debug().Err(err).Str("user_id", ownerID).Msg("Like event not delivered")
	}
}

// NotifyCommentAdded pushes a comment_added event to the post owner
func (h *EngagementHub) NotifyCommentAdded(ownerID string, comment *models.Comment) {
	event := EngagementEvent{
		Type:      "comment_added",
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		CommentID: comment.ID,
		Body:      comment.Body,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := h.send(ownerID, event); err != nil {
		log.Debug().Err(err).Str("user_id", ownerID).Msg("Comment event not delivered")
	}
}

// send delivers an event to a connected user
func (h *EngagementHub) send(userID string, event EngagementEvent) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}
