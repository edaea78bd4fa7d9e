package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"snapfeed-backend/internal/auth"
	"snapfeed-backend/internal/middleware"
	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/services"
	"snapfeed-backend/internal/session"
	"snapfeed-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, login and logout
type AuthHandler struct {
	userService *services.UserService
	codec       *session.Codec
	cookieName  string
	secure      bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService, codec *session.Codec, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		codec:       codec,
		cookieName:  cookieName,
		secure:      secure,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

type userDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func toDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Username: u.Username}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		respondError(w, "email, username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, "email or username already in use", http.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("Failed to register user")
		respondError(w, "failed to register", http.StatusInternalServerError)
		return
	}

	if err := h.startSession(w, user); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to start session")
		respondError(w, "failed to start session", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	respondJSON(w, toDTO(user), http.StatusCreated)
}

// Login handles POST /api/v1/auth/login. A rejected credential pair and
// a system fault answer differently: the former is a 401 with the
// rejection reason, the latter a 500 with an error-level log entry.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := h.userService.Login(r.Context(), req.Email, req.Password)
	switch result.Outcome {
	case auth.OutcomeSuccess:
		if err := h.startSession(w, result.User); err != nil {
			log.Error().Err(err).Str("user_id", result.User.ID).Msg("Failed to start session")
			respondError(w, "failed to start session", http.StatusInternalServerError)
			return
		}
		log.Info().Str("user_id", result.User.ID).Msg("User logged in")
		respondJSON(w, toDTO(result.User), http.StatusOK)
	case auth.OutcomeRejected:
		log.Info().Str("reason", result.Reason).Msg("Login rejected")
		respondError(w, result.Reason, http.StatusUnauthorized)
	default:
		log.Error().Err(result.Err).Msg("Login failed")
		respondError(w, "internal server error", http.StatusInternalServerError)
	}
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
		MaxAge:   -1,
	})
	respondJSON(w, map[string]string{"status": "signed_out"}, http.StatusOK)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	respondJSON(w, toDTO(user), http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *models.User) error {
	token, err := h.codec.ToToken(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
	return nil
}
