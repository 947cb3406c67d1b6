package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/infra/security"
	"github.com/arklim/social-platform-auth/internal/repository"
)

// testClock returns a fixed instant so cooldown and expiry math is exact.
func testClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func testHasher(t *testing.T) *security.PasswordHasher {
	t.Helper()
	hasher, err := security.NewPasswordHasher(security.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("failed to build hasher: %v", err)
	}
	return hasher
}

func testCodec(t *testing.T) *security.Codec {
	t.Helper()
	codec, err := security.NewCodec("0123456789abcdef0123456789abcdef", "fixed-salt")
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}
	return codec
}

type testCredentialStore struct {
	mu    sync.Mutex
	users map[string]*domain.User

	deleted        []string
	lastLoginSet   []string
	rememberTokens map[string]string
	createErr      error
}

func newTestCredentialStore(users ...*domain.User) *testCredentialStore {
	store := &testCredentialStore{
		users:          make(map[string]*domain.User),
		rememberTokens: make(map[string]string),
	}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (s *testCredentialStore) Create(_ context.Context, user domain.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := user
	s.users[user.ID] = &copy
	return nil
}

func (s *testCredentialStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	s.deleted = append(s.deleted, userID)
	return nil
}

func (s *testCredentialStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (s *testCredentialStore) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ProviderType != domain.ProviderDefault {
			continue
		}
		if user.Username == identifier || user.Email == identifier {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *testCredentialStore) GetByRememberToken(_ context.Context, userID, token string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok || user.ProviderType != domain.ProviderDefault {
		return nil, repository.ErrNotFound
	}
	if user.RememberMeToken == nil || *user.RememberMeToken != token {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (s *testCredentialStore) IncrementFailedLogins(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			user.FailedLogins++
			stamp := at
			user.LastFailedLogin = &stamp
			return nil
		}
	}
	return nil
}

func (s *testCredentialStore) ResetFailedLogins(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			user.FailedLogins = 0
			user.LastFailedLogin = nil
		}
	}
	return nil
}

func (s *testCredentialStore) SetLastLogin(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLoginSet = append(s.lastLoginSet, username)
	for _, user := range s.users {
		if user.Username == username {
			stamp := at
			user.LastLoginAt = &stamp
		}
	}
	return nil
}

func (s *testCredentialStore) SetRememberToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.RememberMeToken = &token
	s.rememberTokens[userID] = token
	return nil
}

func (s *testCredentialStore) ClearRememberToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.RememberMeToken = nil
	}
	delete(s.rememberTokens, userID)
	return nil
}

func (s *testCredentialStore) SetResetToken(_ context.Context, username, hash string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username && user.ProviderType == domain.ProviderDefault {
			user.ResetHash = &hash
			stamp := issuedAt
			user.ResetTimestamp = &stamp
			return true, nil
		}
	}
	return false, nil
}

func (s *testCredentialStore) GetResetCandidate(_ context.Context, username, hash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username && user.ResetHash != nil && *user.ResetHash == hash {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *testCredentialStore) ConsumeResetToken(_ context.Context, username, hash, passwordHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username && user.ResetHash != nil && *user.ResetHash == hash {
			user.PasswordHash = passwordHash
			user.ResetHash = nil
			user.ResetTimestamp = nil
			return true, nil
		}
	}
	return false, nil
}

func (s *testCredentialStore) SetSessionID(_ context.Context, userID string, sessionID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.SessionID = sessionID
	return nil
}

func (s *testCredentialStore) GetSessionID(_ context.Context, userID string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user.SessionID, nil
}

func (s *testCredentialStore) Activate(_ context.Context, userID, activationHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok || user.ActivationHash == nil || *user.ActivationHash != activationHash {
		return false, nil
	}
	user.Active = true
	user.ActivationHash = nil
	return true, nil
}

func (s *testCredentialStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *testCredentialStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type testSessionStore struct {
	mu     sync.Mutex
	states map[string]*domain.SessionState
	saves  int
}

func newTestSessionStore() *testSessionStore {
	return &testSessionStore{states: make(map[string]*domain.SessionState)}
}

func (s *testSessionStore) Get(_ context.Context, sessionID string) (*domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[sessionID]; ok {
		copy := *state
		return &copy, nil
	}
	return &domain.SessionState{ID: sessionID}, nil
}

func (s *testSessionStore) Save(_ context.Context, state *domain.SessionState, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *state
	s.states[state.ID] = &copy
	s.saves++
	return nil
}

func (s *testSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}

func (s *testSessionStore) has(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.states[sessionID]
	return ok
}

type testRateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newTestRateLimitStore() *testRateLimitStore {
	return &testRateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *testRateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *testRateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := reference.Add(-window)
	count := 0
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *testRateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *testRateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := reference.Add(-window)
	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) && (!found || at.Before(oldest)) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

type testMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failNext bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *testMailer) Send(_ context.Context, to, _, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type testCaptcha struct {
	reject bool
}

func (c *testCaptcha) Verify(context.Context, string, string) (bool, error) {
	return !c.reject, nil
}

type testEventSink struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	logins     []domain.LoginSucceededEvent
	resets     []domain.PasswordResetRequestedEvent
	changes    []domain.PasswordChangedEvent
	evictions  []domain.SessionEvictedEvent
}

func (e *testEventSink) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered = append(e.registered, event)
	return nil
}

func (e *testEventSink) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logins = append(e.logins, event)
	return nil
}

func (e *testEventSink) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets = append(e.resets, event)
	return nil
}

func (e *testEventSink) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, event)
	return nil
}

func (e *testEventSink) PublishSessionEvicted(_ context.Context, event domain.SessionEvictedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evictions = append(e.evictions, event)
	return nil
}

// loginFixture wires a login service over in-memory stubs.
type loginFixture struct {
	login       *LoginService
	sessions    *SessionService
	store       *testCredentialStore
	sessionRepo *testSessionStore
	events      *testEventSink
	throttle    *ThrottleGuard
}

func newLoginFixture(t *testing.T, at time.Time, users ...*domain.User) *loginFixture {
	t.Helper()

	log := zaptest.NewLogger(t)
	store := newTestCredentialStore(users...)
	sessionRepo := newTestSessionStore()
	events := &testEventSink{}

	sessions := NewSessionService(store, sessionRepo, events, SessionConfig{Runtime: 7 * 24 * time.Hour}, log)
	sessions.WithClock(testClock(at))

	throttle := NewThrottleGuard(3, 30*time.Second)
	throttle.WithClock(testClock(at))

	login := NewLoginService(store, sessions, throttle, testHasher(t), testCodec(t), events,
		RememberCookieConfig{Runtime: 14 * 24 * time.Hour}, log)
	login.WithClock(testClock(at))

	return &loginFixture{
		login:       login,
		sessions:    sessions,
		store:       store,
		sessionRepo: sessionRepo,
		events:      events,
		throttle:    throttle,
	}
}

func (f *loginFixture) retime(t *testing.T, at time.Time) {
	t.Helper()
	f.sessions.WithClock(testClock(at))
	f.throttle.WithClock(testClock(at))
	f.login.WithClock(testClock(at))
}
