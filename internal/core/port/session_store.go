package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-auth/internal/core/domain"
)

// SessionStore persists per-agent session state keyed by session identifier.
// It is owned exclusively by the session manager; other components read
// identity fields through it but never mutate.
type SessionStore interface {
	// Get returns the state for the given id, or a fresh zero state bound to
	// the id when none exists yet (created on first touch).
	Get(ctx context.Context, sessionID string) (*domain.SessionState, error)
	Save(ctx context.Context, state *domain.SessionState, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}
