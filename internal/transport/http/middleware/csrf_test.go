package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/infra/security"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

type fakeSessionStore struct {
	states map[string]*domain.SessionState
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{states: make(map[string]*domain.SessionState)}
}

func (f *fakeSessionStore) Get(_ context.Context, sessionID string) (*domain.SessionState, error) {
	if state, ok := f.states[sessionID]; ok {
		copy := *state
		return &copy, nil
	}
	return &domain.SessionState{ID: sessionID}, nil
}

func (f *fakeSessionStore) Save(_ context.Context, state *domain.SessionState, _ time.Duration) error {
	copy := *state
	f.states[state.ID] = &copy
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(f.states, sessionID)
	return nil
}

// fakeCredentialStore covers only the calls the logout flow makes; nothing
// else in these tests touches the credential store.
type fakeCredentialStore struct {
	port.CredentialStore

	rememberCleared  bool
	sessionIDCleared bool
}

func (f *fakeCredentialStore) ClearRememberToken(_ context.Context, _ string) error {
	f.rememberCleared = true
	return nil
}

func (f *fakeCredentialStore) SetSessionID(_ context.Context, _ string, sessionID *string) error {
	if sessionID == nil {
		f.sessionIDCleared = true
	}
	return nil
}

type noopPublisher struct {
	port.EventPublisher
}

func newCSRFStack(t *testing.T) (*usecase.SessionService, *usecase.LoginService, *usecase.CSRFService, *fakeSessionStore, *fakeCredentialStore) {
	t.Helper()

	log := zaptest.NewLogger(t)
	store := newFakeSessionStore()
	creds := &fakeCredentialStore{}

	sessions := usecase.NewSessionService(creds, store, noopPublisher{}, usecase.SessionConfig{Runtime: time.Hour}, log)

	hasher, err := security.NewPasswordHasher(security.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	codec, err := security.NewCodec("0123456789abcdef0123456789abcdef", "fixed-salt")
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}

	login := usecase.NewLoginService(creds, sessions, usecase.NewThrottleGuard(3, 30*time.Second),
		hasher, codec, noopPublisher{}, usecase.RememberCookieConfig{}, log)
	csrf := usecase.NewCSRFService(sessions, 24*time.Hour)

	return sessions, login, csrf, store, creds
}

func newCSRFRouter(sessions *usecase.SessionService, login *usecase.LoginService, csrf *usecase.CSRFService) *gin.Engine {
	router := gin.New()
	router.Use(Session(sessions), CSRF(csrf, login))
	router.POST("/submit", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/view", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func seedLoggedInSession(store *fakeSessionStore, sessionID, token string) {
	issued := time.Now().UTC()
	store.states[sessionID] = &domain.SessionState{
		ID:            sessionID,
		UserID:        "user-1",
		Username:      "alice",
		LoggedIn:      true,
		CSRFToken:     token,
		CSRFTokenTime: &issued,
	}
}

func TestCSRFFailureTerminatesSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions, login, csrf, store, creds := newCSRFStack(t)
	seedLoggedInSession(store, "sess-1", "issued-token")

	router := newCSRFRouter(sessions, login, csrf)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(&http.Cookie{Name: usecase.SessionCookieName, Value: "sess-1"})
	req.Header.Set(CSRFHeader, "forged-token")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	// A failed check is treated as a hijack: the logout flow must run.
	if _, ok := store.states["sess-1"]; ok {
		t.Fatal("expected session to be destroyed")
	}
	if !creds.rememberCleared {
		t.Fatal("expected remember token to be revoked")
	}
	if !creds.sessionIDCleared {
		t.Fatal("expected recorded session id to be cleared")
	}

	expired := map[string]bool{}
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Value == "" && cookie.MaxAge < 0 {
			expired[cookie.Name] = true
		}
	}
	if !expired[usecase.SessionCookieName] || !expired[usecase.RememberMeCookieName] {
		t.Fatalf("expected both cookies expired, got %v", expired)
	}
}

func TestCSRFValidTokenPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions, login, csrf, store, creds := newCSRFStack(t)
	seedLoggedInSession(store, "sess-1", "issued-token")

	router := newCSRFRouter(sessions, login, csrf)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(&http.Cookie{Name: usecase.SessionCookieName, Value: "sess-1"})
	req.Header.Set(CSRFHeader, "issued-token")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, ok := store.states["sess-1"]; !ok {
		t.Fatal("session must survive a valid submission")
	}
	if creds.rememberCleared {
		t.Fatal("remember token must not be touched on success")
	}
}

func TestCSRFSkipsSafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions, login, csrf, store, _ := newCSRFStack(t)
	seedLoggedInSession(store, "sess-1", "issued-token")

	router := newCSRFRouter(sessions, login, csrf)

	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.AddCookie(&http.Cookie{Name: usecase.SessionCookieName, Value: "sess-1"})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, ok := store.states["sess-1"]; !ok {
		t.Fatal("safe methods must not touch the session")
	}
}
