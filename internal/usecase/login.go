package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/infra/logger"
	"github.com/arklim/social-platform-auth/internal/infra/security"
	"github.com/arklim/social-platform-auth/internal/repository"
)

var (
	// ErrEmptyCredential indicates a missing identifier or password.
	ErrEmptyCredential = errors.New("username or password field empty")
	// ErrInvalidCredentials indicates an unknown identifier or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeleted indicates the account is soft-deleted.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrAccountSuspended indicates an active suspension window.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountNotActivated indicates the account never confirmed its email.
	ErrAccountNotActivated = errors.New("account not activated yet")
	// ErrCookieInvalid indicates a malformed, forged or revoked remember-me cookie.
	ErrCookieInvalid = errors.New("remember-me cookie invalid")
)

// RememberMeCookieName is the cookie that carries the remember-me credential.
const RememberMeCookieName = "remember_me"

const rememberTokenBytes = 32

// RememberCookieConfig carries the attributes for the remember-me cookie.
type RememberCookieConfig struct {
	Runtime time.Duration
	Path    string
	Domain  string
	Secure  bool
}

// LoginResult is returned by successful password and cookie logins. The
// remember-me cookie is only present when a new token was minted.
type LoginResult struct {
	User           *domain.User
	State          *domain.SessionState
	SessionCookie  domain.SessionCookie
	RememberCookie *domain.SessionCookie
}

// LoginService orchestrates password login, cookie login and logout. It
// consults the throttle guard, verifies credentials against the store and on
// success delegates to the session manager.
type LoginService struct {
	credentials port.CredentialStore
	sessions    *SessionService
	throttle    *ThrottleGuard
	hasher      *security.PasswordHasher
	codec       *security.Codec
	events      port.EventPublisher
	cookieCfg   RememberCookieConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewLoginService constructs the credential authenticator.
func NewLoginService(
	credentials port.CredentialStore,
	sessions *SessionService,
	throttle *ThrottleGuard,
	hasher *security.PasswordHasher,
	codec *security.Codec,
	events port.EventPublisher,
	cookieCfg RememberCookieConfig,
	log *zap.Logger,
) *LoginService {
	if cookieCfg.Runtime <= 0 {
		cookieCfg.Runtime = 14 * 24 * time.Hour
	}
	if cookieCfg.Path == "" {
		cookieCfg.Path = "/"
	}
	return &LoginService{
		credentials: credentials,
		sessions:    sessions,
		throttle:    throttle,
		hasher:      hasher,
		codec:       codec,
		events:      events,
		cookieCfg:   cookieCfg,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *LoginService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login validates raw credentials and establishes an authenticated session.
// The checks run in a fixed order so cheaper and less revealing rejections
// come first: empty input, session cooldown, identifier lookup, per-user
// cooldown, deletion, suspension, password, activation.
func (s *LoginService) Login(ctx context.Context, state *domain.SessionState, identifier, password string, rememberMe bool) (*LoginResult, error) {
	if identifier == "" || password == "" {
		return nil, ErrEmptyCredential
	}

	// Session-scoped cooldown fires before any database access so probing
	// nonexistent identifiers cannot generate lookup load.
	if s.throttle.SessionBlocked(state) {
		return nil, ErrTooManyAttempts
	}

	user, err := s.credentials.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.throttle.RecordSessionFailure(state)
			if perr := s.sessions.Persist(ctx, state); perr != nil {
				s.logger.Warn("failed to persist throttle counter", zap.Error(perr))
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup identifier: %w", err)
	}

	// A known identifier ends the unknown-identifier streak.
	if state.FailedLoginCount != 0 || state.LastFailedLogin != nil {
		s.throttle.ClearSessionFailures(state)
		if perr := s.sessions.Persist(ctx, state); perr != nil {
			s.logger.Warn("failed to persist throttle counter", zap.Error(perr))
		}
	}

	if s.throttle.UserBlocked(user) {
		return nil, ErrTooManyAttempts
	}
	if user.Deleted {
		return nil, ErrAccountDeleted
	}
	now := s.now()
	if user.IsSuspended(now) {
		return nil, fmt.Errorf("%w: %.2f hours left", ErrAccountSuspended, user.SuspensionHoursLeft(now))
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		if ierr := s.credentials.IncrementFailedLogins(ctx, identifier, now); ierr != nil {
			s.logger.Warn("failed to increment login failures",
				zap.String("username", logger.MaskString(user.Username)), zap.Error(ierr))
		}
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountNotActivated
	}

	if err := s.credentials.ResetFailedLogins(ctx, user.Username); err != nil {
		return nil, fmt.Errorf("reset login failures: %w", err)
	}
	if err := s.credentials.SetLastLogin(ctx, user.Username, now); err != nil {
		return nil, fmt.Errorf("stamp last login: %w", err)
	}

	var remember *domain.SessionCookie
	if rememberMe {
		cookie, err := s.mintRememberCookie(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		remember = &cookie
	}

	fresh, sessionCookie, err := s.sessions.Establish(ctx, state, user)
	if err != nil {
		return nil, err
	}

	s.publishLogin(ctx, user, "password", rememberMe)
	s.logger.Info("password login",
		zap.String("user_id", user.ID),
		zap.String("username", logger.MaskString(user.Username)),
		zap.Bool("remember_me", rememberMe))

	return &LoginResult{User: user, State: fresh, SessionCookie: sessionCookie, RememberCookie: remember}, nil
}

// LoginWithCookie authenticates via a remember-me cookie. The cookie is
// structurally validated and its binding hash checked in constant time before
// any store lookup. A new cookie is never re-issued here; the token keeps its
// original validity window so a fresh password login is eventually forced.
func (s *LoginService) LoginWithCookie(ctx context.Context, state *domain.SessionState, raw string) (*LoginResult, error) {
	userID, token, ok := s.unsealCookie(raw)
	if !ok {
		return nil, ErrCookieInvalid
	}

	user, err := s.credentials.GetByRememberToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCookieInvalid
		}
		return nil, fmt.Errorf("lookup remember token: %w", err)
	}

	if err := s.credentials.SetLastLogin(ctx, user.Username, s.now()); err != nil {
		return nil, fmt.Errorf("stamp last login: %w", err)
	}

	fresh, sessionCookie, err := s.sessions.Establish(ctx, state, user)
	if err != nil {
		return nil, err
	}

	s.publishLogin(ctx, user, "cookie", false)
	s.logger.Info("cookie login", zap.String("user_id", user.ID))

	return &LoginResult{User: user, State: fresh, SessionCookie: sessionCookie}, nil
}

// Logout tears the authenticated context down on both sides: session state,
// stored remember-me token, recorded session id, and both cookies.
func (s *LoginService) Logout(ctx context.Context, state *domain.SessionState) (domain.SessionCookie, domain.SessionCookie, error) {
	if state != nil && state.LoggedIn {
		if err := s.credentials.ClearRememberToken(ctx, state.UserID); err != nil {
			return domain.SessionCookie{}, domain.SessionCookie{}, fmt.Errorf("clear remember token: %w", err)
		}
		if err := s.credentials.SetSessionID(ctx, state.UserID, nil); err != nil {
			return domain.SessionCookie{}, domain.SessionCookie{}, fmt.Errorf("clear session id: %w", err)
		}
	}
	sessionCookie, err := s.sessions.Destroy(ctx, state)
	if err != nil {
		return domain.SessionCookie{}, domain.SessionCookie{}, err
	}
	return sessionCookie, s.ExpiredRememberCookie(), nil
}

// ExpiredRememberCookie returns a cookie that clears the remember-me
// credential on the agent. Collaborators send it whenever a cookie login
// fails so a stale cookie cannot cause a redirect loop.
func (s *LoginService) ExpiredRememberCookie() domain.SessionCookie {
	return domain.SessionCookie{
		Name:     RememberMeCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     s.cookieCfg.Path,
		Domain:   s.cookieCfg.Domain,
		Secure:   s.cookieCfg.Secure,
		HTTPOnly: true,
	}
}

func (s *LoginService) mintRememberCookie(ctx context.Context, userID string) (domain.SessionCookie, error) {
	token, err := security.GenerateHexToken(rememberTokenBytes)
	if err != nil {
		return domain.SessionCookie{}, fmt.Errorf("mint remember token: %w", err)
	}
	if err := s.credentials.SetRememberToken(ctx, userID, token); err != nil {
		return domain.SessionCookie{}, fmt.Errorf("store remember token: %w", err)
	}

	sealed, err := s.codec.Encrypt(userID)
	if err != nil {
		return domain.SessionCookie{}, fmt.Errorf("seal user id: %w", err)
	}
	signature := security.SignCookie(s.codec.Key(), userID, token)

	return domain.SessionCookie{
		Name:     RememberMeCookieName,
		Value:    sealed + ":" + token + ":" + signature,
		MaxAge:   int(s.cookieCfg.Runtime / time.Second),
		Path:     s.cookieCfg.Path,
		Domain:   s.cookieCfg.Domain,
		Secure:   s.cookieCfg.Secure,
		HTTPOnly: true,
	}, nil
}

// unsealCookie splits and authenticates a raw remember-me cookie, returning
// the recovered user id and token. The sealed segment is base64url so the
// colon is an unambiguous separator.
func (s *LoginService) unsealCookie(raw string) (userID, token string, ok bool) {
	if raw == "" {
		return "", "", false
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}

	userID, err := s.codec.Decrypt(parts[0])
	if err != nil || userID == "" {
		return "", "", false
	}
	if !security.VerifyCookieSignature(s.codec.Key(), userID, parts[1], parts[2]) {
		return "", "", false
	}
	return userID, parts[1], true
}

func (s *LoginService) publishLogin(ctx context.Context, user *domain.User, method string, rememberMe bool) {
	event := domain.LoginSucceededEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Username:   user.Username,
		Method:     method,
		RememberMe: rememberMe,
		LoggedInAt: s.now(),
	}
	if err := s.events.PublishLoginSucceeded(ctx, event); err != nil {
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}
}
