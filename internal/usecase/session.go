package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
)

var (
	// ErrNotAuthenticated indicates the session carries no logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotAuthorized indicates the logged-in user lacks the required role.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrSessionEvicted indicates a newer login elsewhere displaced this session.
	ErrSessionEvicted = errors.New("session evicted by concurrent login")
)

// SessionCookieName is the cookie that carries the session identifier.
const SessionCookieName = "session_id"

// SessionConfig carries the runtime policy for server-side sessions and the
// attributes stamped onto the session cookie.
type SessionConfig struct {
	Runtime      time.Duration
	CookiePath   string
	CookieDomain string
	CookieSecure bool
}

// SessionService owns the server-side session state: it is the only component
// that writes to the session store. Login, CSRF and throttling go through it
// for every session mutation.
type SessionService struct {
	credentials port.CredentialStore
	sessions    port.SessionStore
	events      port.EventPublisher
	cfg         SessionConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService constructs the session manager.
func NewSessionService(credentials port.CredentialStore, sessions port.SessionStore, events port.EventPublisher, cfg SessionConfig, logger *zap.Logger) *SessionService {
	if cfg.Runtime <= 0 {
		cfg.Runtime = 7 * 24 * time.Hour
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	return &SessionService{
		credentials: credentials,
		sessions:    sessions,
		events:      events,
		cfg:         cfg,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Load fetches the session state for the given identifier, returning a fresh
// anonymous state on first contact.
func (s *SessionService) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return state, nil
}

// Persist writes the session state back under its current identifier with the
// configured runtime.
func (s *SessionService) Persist(ctx context.Context, state *domain.SessionState) error {
	if err := s.sessions.Save(ctx, state, s.cfg.Runtime); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Establish promotes the session to an authenticated one. The session
// identifier is regenerated, all prior contents are discarded, the user's
// identity is written into the fresh state and the new identifier is recorded
// on the account row for concurrency detection.
func (s *SessionService) Establish(ctx context.Context, state *domain.SessionState, user *domain.User) (*domain.SessionState, domain.SessionCookie, error) {
	oldID := ""
	if state != nil {
		oldID = state.ID
	}

	fresh := &domain.SessionState{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		AccountType: user.AccountType,
		LoggedIn:    true,
	}

	if err := s.sessions.Save(ctx, fresh, s.cfg.Runtime); err != nil {
		return nil, domain.SessionCookie{}, fmt.Errorf("establish session: %w", err)
	}
	if oldID != "" && oldID != fresh.ID {
		if err := s.sessions.Delete(ctx, oldID); err != nil {
			s.logger.Warn("failed to drop pre-login session", zap.Error(err))
		}
	}

	sid := fresh.ID
	if err := s.credentials.SetSessionID(ctx, user.ID, &sid); err != nil {
		return nil, domain.SessionCookie{}, fmt.Errorf("record session id: %w", err)
	}

	return fresh, s.cookie(fresh.ID, int(s.cfg.Runtime/time.Second)), nil
}

// CheckConcurrency compares the session identifier against the one recorded
// on the account row. A mismatch means a newer login elsewhere took over the
// account; the current session is destroyed and ErrSessionEvicted returned.
func (s *SessionService) CheckConcurrency(ctx context.Context, state *domain.SessionState) error {
	if state == nil || !state.LoggedIn {
		return nil
	}

	recorded, err := s.credentials.GetSessionID(ctx, state.UserID)
	if err != nil {
		return fmt.Errorf("check concurrency: %w", err)
	}
	if recorded != nil && *recorded == state.ID {
		return nil
	}

	if err := s.sessions.Delete(ctx, state.ID); err != nil {
		s.logger.Warn("failed to destroy evicted session", zap.Error(err))
	}
	if err := s.events.PublishSessionEvicted(ctx, domain.SessionEvictedEvent{
		EventID:   uuid.NewString(),
		UserID:    state.UserID,
		SessionID: state.ID,
		EvictedAt: s.now(),
	}); err != nil {
		s.logger.Warn("failed to publish session eviction", zap.Error(err))
	}
	state.ClearIdentity()
	return ErrSessionEvicted
}

// CheckAuthentication verifies the session belongs to a logged-in user. On
// failure the session is destroyed so a stale cookie cannot linger.
func (s *SessionService) CheckAuthentication(ctx context.Context, state *domain.SessionState) error {
	if state != nil && state.LoggedIn {
		return nil
	}
	if state != nil && state.ID != "" {
		if err := s.sessions.Delete(ctx, state.ID); err != nil {
			s.logger.Warn("failed to destroy unauthenticated session", zap.Error(err))
		}
	}
	return ErrNotAuthenticated
}

// CheckAdminAuthentication verifies the session belongs to a logged-in
// administrator. A logged-in non-admin loses the session outright, the same
// way a missing login does.
func (s *SessionService) CheckAdminAuthentication(ctx context.Context, state *domain.SessionState) error {
	if err := s.CheckAuthentication(ctx, state); err != nil {
		return err
	}
	if state.AccountType != domain.AccountTypeAdmin {
		if err := s.sessions.Delete(ctx, state.ID); err != nil {
			s.logger.Warn("failed to destroy unauthorized session", zap.Error(err))
		}
		state.ClearIdentity()
		return ErrNotAuthorized
	}
	return nil
}

// Destroy removes the server-side state and returns an expired cookie that
// clears the session identifier on the agent.
func (s *SessionService) Destroy(ctx context.Context, state *domain.SessionState) (domain.SessionCookie, error) {
	if state != nil && state.ID != "" {
		if err := s.sessions.Delete(ctx, state.ID); err != nil {
			return domain.SessionCookie{}, fmt.Errorf("destroy session: %w", err)
		}
		state.ClearIdentity()
		state.ID = ""
	}
	return s.cookie("", -1), nil
}

func (s *SessionService) cookie(value string, maxAge int) domain.SessionCookie {
	return domain.SessionCookie{
		Name:     SessionCookieName,
		Value:    value,
		MaxAge:   maxAge,
		Path:     s.cfg.CookiePath,
		Domain:   s.cfg.CookieDomain,
		Secure:   s.cfg.CookieSecure,
		HTTPOnly: true,
	}
}
