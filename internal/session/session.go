package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound means the token referenced a user that no longer exists.
	ErrNotFound = errors.New("session user not found")
	// ErrInvalidToken means the token could not be parsed or verified.
	ErrInvalidToken = errors.New("invalid session token")
)

// UserResolver re-resolves a full identity record from its id.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Codec round-trips an identity through an opaque session token. The
// token carries only the user id; FromToken(ToToken(u)) yields u's
// record for as long as u exists in the store.
type Codec struct {
	secret []byte
	users  UserResolver
	ttl    time.Duration
}

// NewCodec creates a session codec signing with secret and resolving
// identities through users.
func NewCodec(secret string, users UserResolver, ttlDays int) *Codec {
	return &Codec{
		secret: []byte(secret),
		users:  users,
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// ToToken serializes the identity into a signed token
func (c *Codec) ToToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(c.ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// FromToken resolves the identity referenced by the token. A token whose
// user has since been removed yields ErrNotFound; a malformed or
// tampered token yields ErrInvalidToken. Any other error is a store
// fault.
func (c *Codec) FromToken(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := c.parse(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}
	return user, nil
}

func (c *Codec) parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: user_id claim missing", ErrInvalidToken)
	}
	return userID, nil
}
