package usecase

import (
	"errors"
	"time"

	"github.com/arklim/social-platform-auth/internal/core/domain"
)

// ErrTooManyAttempts indicates a failed-attempt cooldown is active.
var ErrTooManyAttempts = errors.New("too many failed attempts")

// ThrottleGuard enforces the failed-attempt cooldown policy over two
// independent counters: a session-scoped one for identifiers that match no
// account, and a persisted per-user one for password guesses against a real
// account. Both block once the failure threshold is reached until the
// cooldown has passed, and both reset only on a fully successful login.
type ThrottleGuard struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// NewThrottleGuard constructs a guard with the supplied policy. Non-positive
// values fall back to 3 failures / 30 seconds.
func NewThrottleGuard(maxFailures int, cooldown time.Duration) *ThrottleGuard {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &ThrottleGuard{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (g *ThrottleGuard) WithClock(clock func() time.Time) {
	if clock != nil {
		g.now = clock
	}
}

// SessionBlocked reports whether the unknown-identifier cooldown is active
// for this agent. Checked before any database lookup so probing nonexistent
// accounts stays cheap.
func (g *ThrottleGuard) SessionBlocked(state *domain.SessionState) bool {
	if state == nil || state.FailedLoginCount < g.maxFailures || state.LastFailedLogin == nil {
		return false
	}
	return g.now().Sub(*state.LastFailedLogin) < g.cooldown
}

// RecordSessionFailure bumps the unknown-identifier counter in the session
// state. The caller persists the state.
func (g *ThrottleGuard) RecordSessionFailure(state *domain.SessionState) {
	if state == nil {
		return
	}
	now := g.now()
	state.FailedLoginCount++
	state.LastFailedLogin = &now
}

// ClearSessionFailures resets the unknown-identifier counter once a known
// identifier was supplied.
func (g *ThrottleGuard) ClearSessionFailures(state *domain.SessionState) {
	if state == nil {
		return
	}
	state.FailedLoginCount = 0
	state.LastFailedLogin = nil
}

// UserBlocked reports whether the persisted per-user cooldown is active.
func (g *ThrottleGuard) UserBlocked(user *domain.User) bool {
	if user == nil || user.FailedLogins < g.maxFailures || user.LastFailedLogin == nil {
		return false
	}
	return g.now().Sub(*user.LastFailedLogin) < g.cooldown
}
