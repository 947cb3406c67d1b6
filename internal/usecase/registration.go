package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/infra/logger"
	"github.com/arklim/social-platform-auth/internal/infra/security"
)

var (
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already taken")
	// ErrUsernamePattern indicates the username fails the allowed pattern.
	ErrUsernamePattern = errors.New("username does not fit pattern")
	// ErrEmailPattern indicates a malformed email address.
	ErrEmailPattern = errors.New("email does not fit pattern")
	// ErrEmailRepeatMismatch indicates email and repeat differ.
	ErrEmailRepeatMismatch = errors.New("email repeat mismatch")
	// ErrVerificationMailFailed indicates the verification mail could not be
	// delivered; the account row is rolled back.
	ErrVerificationMailFailed = errors.New("verification mail sending failed")
	// ErrActivationFailed indicates an unknown (user id, activation hash) pair.
	ErrActivationFailed = errors.New("account activation failed")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{2,64}$`)

const activationTokenBytes = 20

// RegistrationInput carries the raw signup form fields.
type RegistrationInput struct {
	Username       string
	Email          string
	EmailRepeat    string
	Password       string
	PasswordRepeat string
	CaptchaAnswer  string
}

// VerifyMailConfig carries the sender identity and the link base for outbound
// verification mails.
type VerifyMailConfig struct {
	From    string
	Subject string
	BaseURL string
}

// RegistrationService creates inactive accounts and activates them once the
// mailed verification link is followed.
type RegistrationService struct {
	credentials port.CredentialStore
	mailer      port.MailSender
	captcha     port.CaptchaVerifier
	events      port.EventPublisher
	hasher      *security.PasswordHasher
	validator   *security.PasswordValidator
	mailCfg     VerifyMailConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewRegistrationService constructs the registration flow.
func NewRegistrationService(
	credentials port.CredentialStore,
	mailer port.MailSender,
	captcha port.CaptchaVerifier,
	events port.EventPublisher,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	mailCfg VerifyMailConfig,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		credentials: credentials,
		mailer:      mailer,
		captcha:     captcha,
		events:      events,
		hasher:      hasher,
		validator:   validator,
		mailCfg:     mailCfg,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register validates the signup form, creates an inactive account and mails
// the activation link. When the mail cannot be delivered the freshly created
// row is removed again so the username and email stay claimable.
func (s *RegistrationService) Register(ctx context.Context, sessionID string, input RegistrationInput) (*domain.User, error) {
	ok, err := s.captcha.Verify(ctx, sessionID, input.CaptchaAnswer)
	if err != nil {
		return nil, fmt.Errorf("verify captcha: %w", err)
	}
	if !ok {
		return nil, ErrCaptchaWrong
	}

	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if err := s.checkAvailability(ctx, input.Username, input.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	activation, err := security.GenerateHexToken(activationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("mint activation token: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:             uuid.NewString(),
		Username:       input.Username,
		Email:          input.Email,
		PasswordHash:   hash,
		Active:         false,
		ActivationHash: &activation,
		ProviderType:   domain.ProviderDefault,
		AccountType:    domain.AccountTypeNormal,
		CreatedAt:      now,
	}
	if err := s.credentials.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	body := fmt.Sprintf(
		"Welcome, %s.\n\n"+
			"Activate your account by opening the link below:\n\n"+
			"%s/register/verify?user_id=%s&token=%s\n",
		user.Username, s.mailCfg.BaseURL, user.ID, activation)

	if err := s.mailer.Send(ctx, user.Email, s.mailCfg.From, s.mailCfg.Subject, body); err != nil {
		s.logger.Error("verification mail delivery failed",
			zap.String("email", logger.MaskEmail(user.Email)), zap.Error(err))
		if derr := s.credentials.Delete(ctx, user.ID); derr != nil {
			s.logger.Error("failed to roll back account row",
				zap.String("user_id", user.ID), zap.Error(derr))
		}
		return nil, ErrVerificationMailFailed
	}

	if perr := s.events.PublishUserRegistered(ctx, domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		MaskedEmail:  logger.MaskEmail(user.Email),
		RegisteredAt: now,
	}); perr != nil {
		s.logger.Warn("failed to publish registration", zap.Error(perr))
	}

	s.logger.Info("account created",
		zap.String("user_id", user.ID),
		zap.String("username", logger.MaskString(user.Username)))
	return &user, nil
}

// VerifyNewUser activates the account matching (user id, activation hash).
// The update is conditional so a guessed or reused hash activates nothing.
func (s *RegistrationService) VerifyNewUser(ctx context.Context, userID, activationHash string) error {
	if userID == "" || activationHash == "" {
		return ErrActivationFailed
	}
	activated, err := s.credentials.Activate(ctx, userID, activationHash)
	if err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	if !activated {
		return ErrActivationFailed
	}
	s.logger.Info("account activated", zap.String("user_id", userID))
	return nil
}

func (s *RegistrationService) validateInput(input RegistrationInput) error {
	if input.Username == "" || input.Password == "" || input.PasswordRepeat == "" {
		return ErrEmptyCredential
	}
	if !usernamePattern.MatchString(input.Username) {
		return ErrUsernamePattern
	}
	if input.Email == "" || input.Email != input.EmailRepeat {
		return ErrEmailRepeatMismatch
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrEmailPattern
	}
	if input.Password != input.PasswordRepeat {
		return ErrPasswordRepeatMismatch
	}
	if err := s.validator.Validate(input.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}
	return nil
}

func (s *RegistrationService) checkAvailability(ctx context.Context, username, email string) error {
	taken, err := s.credentials.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = s.credentials.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}
