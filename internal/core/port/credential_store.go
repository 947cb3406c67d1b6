package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-auth/internal/core/domain"
)

// CredentialStore exposes persistence behavior for user credential records.
// The row is the single source of truth for throttle counters, tokens and the
// session id; mutating operations are single conditional statements so that
// concurrent workers coordinate through the store, not through locks.
type CredentialStore interface {
	Create(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, userID string) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier matches username or email, restricted to DEFAULT
	// provider accounts.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// GetByRememberToken matches (user id, remember-me token), restricted to
	// DEFAULT provider accounts.
	GetByRememberToken(ctx context.Context, userID, token string) (*domain.User, error)

	IncrementFailedLogins(ctx context.Context, identifier string, at time.Time) error
	ResetFailedLogins(ctx context.Context, username string) error
	SetLastLogin(ctx context.Context, username string, at time.Time) error

	SetRememberToken(ctx context.Context, userID, token string) error
	ClearRememberToken(ctx context.Context, userID string) error

	// SetResetToken overwrites any prior reset token; reports false when no
	// DEFAULT-provider row matched the username.
	SetResetToken(ctx context.Context, username, hash string, issuedAt time.Time) (bool, error)
	GetResetCandidate(ctx context.Context, username, hash string) (*domain.User, error)
	// ConsumeResetToken writes the new password hash and clears the reset
	// fields in one statement keyed on (username, hash), so a token is
	// consumed at most once even under a race.
	ConsumeResetToken(ctx context.Context, username, hash, passwordHash string) (bool, error)

	SetSessionID(ctx context.Context, userID string, sessionID *string) error
	GetSessionID(ctx context.Context, userID string) (*string, error)

	Activate(ctx context.Context, userID, activationHash string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
