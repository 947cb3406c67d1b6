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

type registrationFixture struct {
	service *RegistrationService
	store   *testCredentialStore
	mailer  *testMailer
	captcha *testCaptcha
	events  *testEventSink
}

func newRegistrationFixture(t *testing.T, at time.Time, users ...*domain.User) *registrationFixture {
	t.Helper()

	store := newTestCredentialStore(users...)
	mailer := &testMailer{}
	captcha := &testCaptcha{}
	events := &testEventSink{}

	service := NewRegistrationService(store, mailer, captcha, events, testHasher(t),
		security.DefaultPasswordValidator(),
		VerifyMailConfig{From: "no-reply@example.com", Subject: "Activate your account", BaseURL: "https://app.example.com"},
		zaptest.NewLogger(t))
	service.WithClock(testClock(at))

	return &registrationFixture{service: service, store: store, mailer: mailer, captcha: captcha, events: events}
}

func validInput() RegistrationInput {
	return RegistrationInput{
		Username:       "alice42",
		Email:          "alice@example.com",
		EmailRepeat:    "alice@example.com",
		Password:       "correct horse",
		PasswordRepeat: "correct horse",
		CaptchaAnswer:  "answer",
	}
}

func TestRegisterCreatesInactiveAccount(t *testing.T) {
	f := newRegistrationFixture(t, testInstant)

	user, err := f.service.Register(context.Background(), "sess-1", validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Active {
		t.Fatal("fresh account must be inactive")
	}
	if user.ActivationHash == nil || *user.ActivationHash == "" {
		t.Fatal("activation hash missing")
	}
	if user.ProviderType != domain.ProviderDefault || user.AccountType != domain.AccountTypeNormal {
		t.Fatalf("unexpected account flags: %+v", user)
	}

	if len(f.mailer.sent) != 1 || f.mailer.sent[0].to != "alice@example.com" {
		t.Fatalf("unexpected mail: %+v", f.mailer.sent)
	}
	if !strings.Contains(f.mailer.sent[0].body, *user.ActivationHash) {
		t.Fatal("mail does not carry the activation link")
	}
	if len(f.events.registered) != 1 || f.events.registered[0].MaskedEmail == "alice@example.com" {
		t.Fatalf("event email not masked: %+v", f.events.registered)
	}
}

func TestRegisterRollsBackOnMailFailure(t *testing.T) {
	f := newRegistrationFixture(t, testInstant)
	f.mailer.failNext = true

	_, err := f.service.Register(context.Background(), "sess-1", validInput())
	if !errors.Is(err, ErrVerificationMailFailed) {
		t.Fatalf("expected ErrVerificationMailFailed, got %v", err)
	}
	if len(f.store.deleted) != 1 {
		t.Fatal("account row not rolled back")
	}
	taken, _ := f.store.UsernameExists(context.Background(), "alice42")
	if taken {
		t.Fatal("username still claimed after rollback")
	}
}

func TestRegisterValidation(t *testing.T) {
	existing := &domain.User{
		ID: "u0", Username: "taken", Email: "taken@example.com",
		ProviderType: domain.ProviderDefault,
	}
	f := newRegistrationFixture(t, testInstant, existing)

	mutate := func(fn func(*RegistrationInput)) RegistrationInput {
		input := validInput()
		fn(&input)
		return input
	}

	cases := []struct {
		name  string
		input RegistrationInput
		want  error
	}{
		{"empty username", mutate(func(i *RegistrationInput) { i.Username = "" }), ErrEmptyCredential},
		{"username too short", mutate(func(i *RegistrationInput) { i.Username = "a" }), ErrUsernamePattern},
		{"username bad chars", mutate(func(i *RegistrationInput) { i.Username = "al ice!" }), ErrUsernamePattern},
		{"email mismatch", mutate(func(i *RegistrationInput) { i.EmailRepeat = "other@example.com" }), ErrEmailRepeatMismatch},
		{"email malformed", mutate(func(i *RegistrationInput) { i.Email, i.EmailRepeat = "not-an-email", "not-an-email" }), ErrEmailPattern},
		{"password mismatch", mutate(func(i *RegistrationInput) { i.PasswordRepeat = "different" }), ErrPasswordRepeatMismatch},
		{"password too short", mutate(func(i *RegistrationInput) { i.Password, i.PasswordRepeat = "five5", "five5" }), ErrPasswordTooWeak},
		{"username taken", mutate(func(i *RegistrationInput) { i.Username = "taken" }), ErrUsernameTaken},
		{"email taken", mutate(func(i *RegistrationInput) { i.Email, i.EmailRepeat = "taken@example.com", "taken@example.com" }), ErrEmailTaken},
	}
	for _, tc := range cases {
		if _, err := f.service.Register(context.Background(), "sess-1", tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if len(f.mailer.sent) != 0 {
		t.Fatal("rejected registrations must not send mail")
	}
}

func TestRegisterRejectsWrongCaptcha(t *testing.T) {
	f := newRegistrationFixture(t, testInstant)
	f.captcha.reject = true

	if _, err := f.service.Register(context.Background(), "sess-1", validInput()); !errors.Is(err, ErrCaptchaWrong) {
		t.Fatalf("expected ErrCaptchaWrong, got %v", err)
	}
}

func TestVerifyNewUserActivates(t *testing.T) {
	f := newRegistrationFixture(t, testInstant)

	user, err := f.service.Register(context.Background(), "sess-1", validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	hash := *user.ActivationHash

	if err := f.service.VerifyNewUser(context.Background(), user.ID, "wrong-hash"); !errors.Is(err, ErrActivationFailed) {
		t.Fatalf("expected ErrActivationFailed, got %v", err)
	}
	if err := f.service.VerifyNewUser(context.Background(), user.ID, hash); err != nil {
		t.Fatalf("activation failed: %v", err)
	}

	stored := f.store.users[user.ID]
	if !stored.Active || stored.ActivationHash != nil {
		t.Fatalf("account not activated: %+v", stored)
	}

	// The hash is single-use.
	if err := f.service.VerifyNewUser(context.Background(), user.ID, hash); !errors.Is(err, ErrActivationFailed) {
		t.Fatalf("expected ErrActivationFailed on reuse, got %v", err)
	}
}

func TestRegisterAcceptsBaselinePolicyPassword(t *testing.T) {
	f := newRegistrationFixture(t, testInstant)

	input := validInput()
	input.Username = "alice"
	input.Password, input.PasswordRepeat = "Secret1", "Secret1"

	user, err := f.service.Register(context.Background(), "sess-1", input)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Active {
		t.Fatal("fresh account must be inactive")
	}
	if f.store.users[user.ID] == nil {
		t.Fatal("account row missing")
	}
}
