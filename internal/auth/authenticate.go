package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/store"
)

// Outcome classifies an authentication attempt. Rejected means the
// credentials were bad; OutcomeError means the system could not decide.
// Callers must not report the two the same way.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRejected
	OutcomeError
)

// Rejection reasons reported to the caller.
const (
	ReasonEmailNotFound   = "email not found"
	ReasonNoPasswordLogin = "password login unavailable; provisioned via external provider"
	ReasonBadCredentials  = "invalid email or password"
)

// Result is the terminal state of an authentication attempt. User is set
// only on OutcomeSuccess, Reason only on OutcomeRejected, Err only on
// OutcomeError.
type Result struct {
	Outcome Outcome
	User    *models.User
	Reason  string
	Err     error
}

// UserFinder looks up an identity by its normalized email.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticate verifies an (email, password) pair against the credential
// store. Branches, in order: unknown email, account without a local
// password, hash mismatch, match. An account provisioned through an
// external provider is rejected before any hash comparison so an empty
// stored hash can never become a bypass.
func Authenticate(ctx context.Context, users UserFinder, email, password string) Result {
	user, err := users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{Outcome: OutcomeRejected, Reason: ReasonEmailNotFound}
		}
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("failed to look up user: %w", err)}
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return Result{Outcome: OutcomeRejected, Reason: ReasonNoPasswordLogin}
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return Result{Outcome: OutcomeRejected, Reason: ReasonBadCredentials}
	}
	return Result{Outcome: OutcomeSuccess, User: user}
}

// NormalizeEmail lower-cases and trims an email address. Registration and
// lookup both go through this, which is what makes email uniqueness
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
