package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/session"

	"github.com/rs/zerolog/log"
)

type contextKey string

const userKey contextKey = "user"

// WithIdentity resolves the session token into a full identity once per
// request and binds it to the request context. Requests with no token,
// an invalid token, or a token for a removed user proceed as guest; a
// store fault is logged and the request also proceeds as guest.
func WithIdentity(codec *session.Codec, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := codec.FromToken(r.Context(), token)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), userKey, user)
				r = r.WithContext(ctx)
			case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidToken):
				// Stale session, treat as guest.
			default:
				log.Error().Err(err).Msg("Failed to resolve session identity")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenFromRequest reads the session token from the cookie, falling
// back to an Authorization bearer header for non-browser clients.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// CurrentUser returns the identity bound to the request context, or nil
// for a guest.
func CurrentUser(ctx context.Context) *models.User {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireAuth gates a route on a bound identity
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			respondError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest gates a route on the absence of a bound identity
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) != nil {
			respondError(w, "already authenticated", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
