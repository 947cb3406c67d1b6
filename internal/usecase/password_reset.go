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
	"github.com/arklim/social-platform-auth/internal/infra/logger"
	"github.com/arklim/social-platform-auth/internal/infra/security"
	"github.com/arklim/social-platform-auth/internal/repository"
)

var (
	// ErrCaptchaWrong indicates a failed captcha check.
	ErrCaptchaWrong = errors.New("captcha wrong")
	// ErrUserDoesNotExist indicates the identifier matched no account.
	ErrUserDoesNotExist = errors.New("user does not exist")
	// ErrResetTokenFail indicates the reset token could not be written.
	ErrResetTokenFail = errors.New("password reset token could not be stored")
	// ErrResetMailFailed indicates the reset mail could not be delivered.
	ErrResetMailFailed = errors.New("password reset mail sending failed")
	// ErrResetCombinationNotFound indicates an unknown (username, token) pair.
	ErrResetCombinationNotFound = errors.New("password reset combination does not exist")
	// ErrResetLinkExpired indicates the reset token outlived its window.
	ErrResetLinkExpired = errors.New("password reset link expired")
	// ErrPasswordFieldEmpty indicates a missing password input.
	ErrPasswordFieldEmpty = errors.New("password field empty")
	// ErrPasswordRepeatMismatch indicates password and repeat differ.
	ErrPasswordRepeatMismatch = errors.New("password repeat mismatch")
	// ErrPasswordTooWeak indicates the new password failed validation.
	ErrPasswordTooWeak = errors.New("password too weak")
	// ErrPasswordChangeFailed indicates the consuming update matched no row.
	ErrPasswordChangeFailed = errors.New("password change failed")
	// ErrRateLimitExceeded indicates too many reset requests in the window.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

const (
	resetTokenBytes = 20
	resetTokenTTL   = time.Hour
)

// ResetMailConfig carries the sender identity and the link base for outbound
// reset mails.
type ResetMailConfig struct {
	From    string
	Subject string
	BaseURL string
}

// ResetRateLimit bounds reset requests per identifier over a sliding window.
type ResetRateLimit struct {
	MaxAttempts int
	Window      time.Duration
}

// PasswordResetService drives the reset token lifecycle: request issues a
// time-boxed token and mails the link, verify gates the form render, and
// set-new-password consumes the token atomically.
type PasswordResetService struct {
	credentials port.CredentialStore
	rateLimits  port.RateLimitStore
	mailer      port.MailSender
	captcha     port.CaptchaVerifier
	events      port.EventPublisher
	hasher      *security.PasswordHasher
	validator   *security.PasswordValidator
	mailCfg     ResetMailConfig
	limit       ResetRateLimit
	logger      *zap.Logger
	now         func() time.Time
}

// NewPasswordResetService constructs the reset lifecycle manager.
func NewPasswordResetService(
	credentials port.CredentialStore,
	rateLimits port.RateLimitStore,
	mailer port.MailSender,
	captcha port.CaptchaVerifier,
	events port.EventPublisher,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	mailCfg ResetMailConfig,
	limit ResetRateLimit,
	log *zap.Logger,
) *PasswordResetService {
	if limit.MaxAttempts <= 0 {
		limit.MaxAttempts = 5
	}
	if limit.Window <= 0 {
		limit.Window = time.Hour
	}
	return &PasswordResetService{
		credentials: credentials,
		rateLimits:  rateLimits,
		mailer:      mailer,
		captcha:     captcha,
		events:      events,
		hasher:      hasher,
		validator:   validator,
		mailCfg:     mailCfg,
		limit:       limit,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Request issues a fresh reset token for the account matching the identifier
// and mails the reset link. Any prior token is overwritten. A mail delivery
// failure does not revoke the already-stored token; the link in a retried
// mail supersedes it anyway.
func (s *PasswordResetService) Request(ctx context.Context, sessionID, identifier, captchaAnswer string) error {
	if identifier == "" {
		return ErrUserDoesNotExist
	}

	ok, err := s.captcha.Verify(ctx, sessionID, captchaAnswer)
	if err != nil {
		return fmt.Errorf("verify captcha: %w", err)
	}
	if !ok {
		return ErrCaptchaWrong
	}

	if err := s.checkRateLimit(ctx, identifier); err != nil {
		return err
	}

	user, err := s.credentials.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserDoesNotExist
		}
		return fmt.Errorf("lookup identifier: %w", err)
	}

	token, err := security.GenerateHexToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("mint reset token: %w", err)
	}
	issuedAt := s.now()

	stored, err := s.credentials.SetResetToken(ctx, user.Username, security.HashToken(token), issuedAt)
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if !stored {
		return ErrResetTokenFail
	}

	if err := s.rateLimits.RecordAttempt(ctx, resetLimitKey(identifier), issuedAt); err != nil {
		s.logger.Warn("failed to record reset attempt", zap.Error(err))
	}

	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Open the link below within one hour to choose a new password:\n\n"+
			"%s/password-reset/verify?username=%s&token=%s\n\n"+
			"If you did not request this, you can ignore this mail.",
		s.mailCfg.BaseURL, user.Username, token)

	if err := s.mailer.Send(ctx, user.Email, s.mailCfg.From, s.mailCfg.Subject, body); err != nil {
		s.logger.Error("reset mail delivery failed",
			zap.String("email", logger.MaskEmail(user.Email)), zap.Error(err))
		return ErrResetMailFailed
	}

	if perr := s.events.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
		EventID:           uuid.NewString(),
		UserID:            user.ID,
		Username:          user.Username,
		MaskedDestination: logger.MaskEmail(user.Email),
		RequestedAt:       issuedAt,
		ExpiresAt:         issuedAt.Add(resetTokenTTL),
	}); perr != nil {
		s.logger.Warn("failed to publish reset request", zap.Error(perr))
	}

	s.logger.Info("password reset requested",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)))
	return nil
}

// Verify gates the new-password form: it checks that the (username, token)
// pair exists and that the token is still inside its one-hour window. Unknown
// username and unknown token collapse into the same answer.
func (s *PasswordResetService) Verify(ctx context.Context, username, token string) error {
	if username == "" || token == "" {
		return ErrResetCombinationNotFound
	}

	user, err := s.credentials.GetResetCandidate(ctx, username, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetCombinationNotFound
		}
		return fmt.Errorf("lookup reset candidate: %w", err)
	}
	if user.ResetTimestamp == nil || s.now().Sub(*user.ResetTimestamp) >= resetTokenTTL {
		return ErrResetLinkExpired
	}
	return nil
}

// SetNewPassword consumes the reset token: it validates the new password,
// then writes the new hash and clears the reset fields in one conditional
// update keyed on (username, token hash). A second submission with the same
// token matches no row and fails.
func (s *PasswordResetService) SetNewPassword(ctx context.Context, username, token, password, passwordRepeat string) error {
	if username == "" || token == "" {
		return ErrResetCombinationNotFound
	}
	if password == "" || passwordRepeat == "" {
		return ErrPasswordFieldEmpty
	}
	if password != passwordRepeat {
		return ErrPasswordRepeatMismatch
	}
	if err := s.validator.Validate(password); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changed, err := s.credentials.ConsumeResetToken(ctx, username, security.HashToken(token), hash)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !changed {
		return ErrPasswordChangeFailed
	}

	if user, gerr := s.credentials.GetByIdentifier(ctx, username); gerr == nil {
		if perr := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			Username:  user.Username,
			ChangedAt: s.now(),
		}); perr != nil {
			s.logger.Warn("failed to publish password change", zap.Error(perr))
		}
	}

	s.logger.Info("password changed via reset",
		zap.String("username", logger.MaskString(username)))
	return nil
}

// RateLimitedError reports how long the caller must wait until the oldest
// attempt leaves the window. It unwraps to ErrRateLimitExceeded.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimitExceeded }

func (s *PasswordResetService) checkRateLimit(ctx context.Context, identifier string) error {
	key := resetLimitKey(identifier)
	now := s.now()
	if err := s.rateLimits.TrimWindow(ctx, key, s.limit.Window, now); err != nil {
		return fmt.Errorf("trim rate limit window: %w", err)
	}
	count, err := s.rateLimits.CountAttempts(ctx, key, s.limit.Window, now)
	if err != nil {
		return fmt.Errorf("count reset attempts: %w", err)
	}
	if count >= s.limit.MaxAttempts {
		retry := s.limit.Window
		if oldest, ok, oerr := s.rateLimits.OldestAttempt(ctx, key, s.limit.Window, now); oerr == nil && ok {
			retry = oldest.Add(s.limit.Window).Sub(now)
		}
		return &RateLimitedError{RetryAfter: retry}
	}
	return nil
}

func resetLimitKey(identifier string) string {
	return "password_reset:" + identifier
}
