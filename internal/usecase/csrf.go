package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/infra/security"
)

// ErrCSRFInvalid indicates a missing or mismatched anti-forgery token.
var ErrCSRFInvalid = errors.New("csrf token invalid")

const csrfTokenBytes = 32

// CSRFService issues and validates per-session anti-forgery tokens. A token
// lives in the session state next to its issue timestamp and is rotated once
// the lifetime has passed.
type CSRFService struct {
	sessions *SessionService
	lifetime time.Duration
	now      func() time.Time
}

// NewCSRFService constructs the guard. A non-positive lifetime falls back to
// 24 hours.
func NewCSRFService(sessions *SessionService, lifetime time.Duration) *CSRFService {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &CSRFService{
		sessions: sessions,
		lifetime: lifetime,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *CSRFService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// IssueToken returns the session's current token, minting a fresh one when
// none exists or the current one has outlived its lifetime.
func (s *CSRFService) IssueToken(ctx context.Context, state *domain.SessionState) (string, error) {
	now := s.now()
	if state.CSRFToken != "" && state.CSRFTokenTime != nil && now.Sub(*state.CSRFTokenTime) < s.lifetime {
		return state.CSRFToken, nil
	}

	token, err := security.GenerateHexToken(csrfTokenBytes)
	if err != nil {
		return "", fmt.Errorf("mint csrf token: %w", err)
	}
	state.CSRFToken = token
	state.CSRFTokenTime = &now
	if err := s.sessions.Persist(ctx, state); err != nil {
		return "", err
	}
	return token, nil
}

// Validate compares a submitted token against the session's token in constant
// time. An empty submitted or stored token never validates.
func (s *CSRFService) Validate(state *domain.SessionState, submitted string) error {
	if state == nil || submitted == "" || state.CSRFToken == "" {
		return ErrCSRFInvalid
	}
	if subtle.ConstantTimeCompare([]byte(state.CSRFToken), []byte(submitted)) != 1 {
		return ErrCSRFInvalid
	}
	return nil
}
