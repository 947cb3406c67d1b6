package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/infra/security"
)

type resetFixture struct {
	service *PasswordResetService
	store   *testCredentialStore
	limits  *testRateLimitStore
	mailer  *testMailer
	captcha *testCaptcha
	events  *testEventSink
	hasher  *security.PasswordHasher
}

func newResetFixture(t *testing.T, at time.Time, users ...*domain.User) *resetFixture {
	t.Helper()

	store := newTestCredentialStore(users...)
	limits := newTestRateLimitStore()
	mailer := &testMailer{}
	captcha := &testCaptcha{}
	events := &testEventSink{}
	hasher := testHasher(t)

	service := NewPasswordResetService(store, limits, mailer, captcha, events, hasher,
		security.DefaultPasswordValidator(),
		ResetMailConfig{From: "no-reply@example.com", Subject: "Password reset", BaseURL: "https://app.example.com"},
		ResetRateLimit{MaxAttempts: 5, Window: time.Hour},
		zaptest.NewLogger(t))
	service.WithClock(testClock(at))

	return &resetFixture{service: service, store: store, limits: limits, mailer: mailer, captcha: captcha, events: events, hasher: hasher}
}

func resetUser(f *resetFixture, id, username, email string) *domain.User {
	user := &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "old-hash",
		Active:       true,
		ProviderType: domain.ProviderDefault,
		AccountType:  domain.AccountTypeNormal,
	}
	f.store.users[id] = user
	return user
}

// requestToken runs a full request and extracts the raw token from the mailed
// link.
func requestToken(t *testing.T, f *resetFixture, identifier string) string {
	t.Helper()
	if err := f.service.Request(context.Background(), "sess-1", identifier, "answer"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	body := f.mailer.sent[len(f.mailer.sent)-1].body
	idx := strings.LastIndex(body, "token=")
	if idx < 0 {
		t.Fatalf("no token in mail body: %q", body)
	}
	token := body[idx+len("token="):]
	if end := strings.IndexAny(token, "\n "); end >= 0 {
		token = token[:end]
	}
	return token
}

func TestResetRequestIssuesTokenAndMailsLink(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")

	token := requestToken(t, f, "alice")
	if len(token) != 2*resetTokenBytes {
		t.Fatalf("unexpected token length %d", len(token))
	}

	stored := f.store.users["u1"]
	if stored.ResetHash == nil || *stored.ResetHash != security.HashToken(token) {
		t.Fatal("stored hash does not match mailed token")
	}
	if stored.ResetTimestamp == nil || !stored.ResetTimestamp.Equal(testInstant) {
		t.Fatalf("unexpected issue timestamp: %v", stored.ResetTimestamp)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].to != "alice@example.com" {
		t.Fatalf("unexpected mail: %+v", f.mailer.sent)
	}
	if strings.Contains(f.mailer.sent[0].body, *stored.ResetHash) {
		t.Fatal("mail must carry the raw token, never its hash")
	}
	if len(f.events.resets) != 1 || f.events.resets[0].MaskedDestination == "alice@example.com" {
		t.Fatalf("event destination not masked: %+v", f.events.resets)
	}
}

func TestResetRequestRejectsWrongCaptcha(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	f.captcha.reject = true

	if err := f.service.Request(context.Background(), "sess-1", "alice", "nope"); !errors.Is(err, ErrCaptchaWrong) {
		t.Fatalf("expected ErrCaptchaWrong, got %v", err)
	}
	if f.store.users["u1"].ResetHash != nil {
		t.Fatal("token issued despite failed captcha")
	}
}

func TestResetRequestUnknownIdentifier(t *testing.T) {
	f := newResetFixture(t, testInstant)
	if err := f.service.Request(context.Background(), "sess-1", "nobody", "answer"); !errors.Is(err, ErrUserDoesNotExist) {
		t.Fatalf("expected ErrUserDoesNotExist, got %v", err)
	}
}

func TestResetRequestKeepsTokenOnMailFailure(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	f.mailer.failNext = true

	err := f.service.Request(context.Background(), "sess-1", "alice", "answer")
	if !errors.Is(err, ErrResetMailFailed) {
		t.Fatalf("expected ErrResetMailFailed, got %v", err)
	}
	// The stored token survives the delivery failure; a retried request
	// overwrites it anyway.
	if f.store.users["u1"].ResetHash == nil {
		t.Fatal("token rolled back on mail failure")
	}
}

func TestResetRequestOverwritesPriorToken(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")

	first := requestToken(t, f, "alice")
	second := requestToken(t, f, "alice")
	if first == second {
		t.Fatal("second request reused the first token")
	}

	if err := f.service.Verify(context.Background(), "alice", first); !errors.Is(err, ErrResetCombinationNotFound) {
		t.Fatalf("first token must be invalid after reissue, got %v", err)
	}
	if err := f.service.Verify(context.Background(), "alice", second); err != nil {
		t.Fatalf("second token must verify, got %v", err)
	}
}

func TestResetRequestRateLimited(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")

	for i := 0; i < 5; i++ {
		if err := f.service.Request(context.Background(), "sess-1", "alice", "answer"); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	err := f.service.Request(context.Background(), "sess-1", "alice", "answer")
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}

	// The error reports when the oldest attempt leaves the window.
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %T", err)
	}
	if limited.RetryAfter != time.Hour {
		t.Fatalf("expected retry after 1h, got %v", limited.RetryAfter)
	}

	// Half a window later the wait shrinks accordingly.
	f.service.WithClock(testClock(testInstant.Add(30 * time.Minute)))
	err = f.service.Request(context.Background(), "sess-1", "alice", "answer")
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limited.RetryAfter != 30*time.Minute {
		t.Fatalf("expected retry after 30m, got %v", limited.RetryAfter)
	}
}

func TestResetVerifyWindow(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	token := requestToken(t, f, "alice")

	// Inside the window.
	f.service.WithClock(testClock(testInstant.Add(59 * time.Minute)))
	if err := f.service.Verify(context.Background(), "alice", token); err != nil {
		t.Fatalf("token must verify inside the window, got %v", err)
	}

	// One second past the hour.
	f.service.WithClock(testClock(testInstant.Add(time.Hour + time.Second)))
	if err := f.service.Verify(context.Background(), "alice", token); !errors.Is(err, ErrResetLinkExpired) {
		t.Fatalf("expected ErrResetLinkExpired, got %v", err)
	}
}

func TestResetVerifyCollapsesUnknowns(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	requestToken(t, f, "alice")

	// Unknown user and unknown token produce the same answer.
	if err := f.service.Verify(context.Background(), "mallory", "whatever"); !errors.Is(err, ErrResetCombinationNotFound) {
		t.Fatalf("expected ErrResetCombinationNotFound, got %v", err)
	}
	if err := f.service.Verify(context.Background(), "alice", strings.Repeat("0", 40)); !errors.Is(err, ErrResetCombinationNotFound) {
		t.Fatalf("expected ErrResetCombinationNotFound, got %v", err)
	}
}

func TestSetNewPasswordConsumesToken(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	token := requestToken(t, f, "alice")

	if err := f.service.SetNewPassword(context.Background(), "alice", token, "new password", "new password"); err != nil {
		t.Fatalf("set new password failed: %v", err)
	}

	stored := f.store.users["u1"]
	if stored.ResetHash != nil || stored.ResetTimestamp != nil {
		t.Fatal("reset fields not cleared")
	}
	ok, err := f.hasher.Verify("new password", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}
	if len(f.events.changes) != 1 || f.events.changes[0].UserID != "u1" {
		t.Fatalf("unexpected change events: %+v", f.events.changes)
	}

	// The token is single-use.
	if err := f.service.SetNewPassword(context.Background(), "alice", token, "another pw", "another pw"); !errors.Is(err, ErrPasswordChangeFailed) {
		t.Fatalf("expected ErrPasswordChangeFailed on reuse, got %v", err)
	}
}

func TestSetNewPasswordValidation(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	token := requestToken(t, f, "alice")

	cases := []struct {
		name     string
		password string
		repeat   string
		want     error
	}{
		{"empty password", "", "", ErrPasswordFieldEmpty},
		{"empty repeat", "new password", "", ErrPasswordFieldEmpty},
		{"mismatch", "new password", "other password", ErrPasswordRepeatMismatch},
		{"too short", "five5", "five5", ErrPasswordTooWeak},
	}
	for _, tc := range cases {
		if err := f.service.SetNewPassword(context.Background(), "alice", token, tc.password, tc.repeat); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// None of the rejections consumed the token.
	if err := f.service.Verify(context.Background(), "alice", token); err != nil {
		t.Fatalf("token must still verify, got %v", err)
	}
	if f.store.users["u1"].PasswordHash != "old-hash" {
		t.Fatal("password hash changed by a rejected submission")
	}
}

func TestSetNewPasswordAcceptsBaselinePolicyPassword(t *testing.T) {
	f := newResetFixture(t, testInstant)
	resetUser(f, "u1", "alice", "alice@example.com")
	token := requestToken(t, f, "alice")

	if err := f.service.SetNewPassword(context.Background(), "alice", token, "Secret1", "Secret1"); err != nil {
		t.Fatalf("set new password failed: %v", err)
	}

	ok, err := f.hasher.Verify("Secret1", f.store.users["u1"].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}
}
