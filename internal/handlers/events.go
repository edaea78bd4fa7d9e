package handlers

import (
	"net/http"

	"snapfeed-backend/internal/services"
	"snapfeed-backend/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler serves the engagement event stream
type EventsHandler struct {
	hub   *services.EngagementHub
	codec *session.Codec
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *services.EngagementHub, codec *session.Codec) *EventsHandler {
	return &EventsHandler{hub: hub, codec: codec}
}

// HandleWebSocket handles GET /ws?token=. The connection is
// authenticated with the session token passed as a query parameter and
// then only consumes events; inbound messages are discarded.
func (h *EventsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	user, err := h.codec.FromToken(r.Context(), token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(user.ID, conn)
	defer h.hub.Unregister(user.ID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", user.ID).Msg("WebSocket error")
			}
			return
		}
	}
}
