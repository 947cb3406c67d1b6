package usecase

import (
	"errors"

	"github.com/arklim/social-platform-auth/internal/core/domain"
)

// FeedbackFor maps a usecase error to its feedback key. Collaborators render
// the key; unknown errors collapse to invalid credentials so internals never
// leak into user-facing messages.
func FeedbackFor(err error) domain.FeedbackKey {
	switch {
	case errors.Is(err, ErrEmptyCredential):
		return domain.FeedbackEmptyCredential
	case errors.Is(err, ErrTooManyAttempts), errors.Is(err, ErrRateLimitExceeded):
		return domain.FeedbackTooManyAttempts
	case errors.Is(err, ErrAccountDeleted):
		return domain.FeedbackAccountDeleted
	case errors.Is(err, ErrAccountSuspended):
		return domain.FeedbackAccountSuspended
	case errors.Is(err, ErrAccountNotActivated):
		return domain.FeedbackAccountNotActivated
	case errors.Is(err, ErrCookieInvalid):
		return domain.FeedbackCookieInvalid
	case errors.Is(err, ErrCaptchaWrong):
		return domain.FeedbackCaptchaWrong
	case errors.Is(err, ErrUserDoesNotExist):
		return domain.FeedbackUserDoesNotExist
	case errors.Is(err, ErrResetTokenFail):
		return domain.FeedbackResetTokenFail
	case errors.Is(err, ErrResetMailFailed):
		return domain.FeedbackResetMailFailed
	case errors.Is(err, ErrResetCombinationNotFound):
		return domain.FeedbackResetCombinationNotFound
	case errors.Is(err, ErrResetLinkExpired):
		return domain.FeedbackResetLinkExpired
	case errors.Is(err, ErrPasswordFieldEmpty):
		return domain.FeedbackPasswordFieldEmpty
	case errors.Is(err, ErrPasswordRepeatMismatch):
		return domain.FeedbackPasswordRepeatWrong
	case errors.Is(err, ErrPasswordTooWeak):
		return domain.FeedbackPasswordTooShort
	case errors.Is(err, ErrPasswordChangeFailed):
		return domain.FeedbackPasswordChangeFailed
	case errors.Is(err, ErrUsernameTaken):
		return domain.FeedbackUsernameTaken
	case errors.Is(err, ErrEmailTaken):
		return domain.FeedbackEmailTaken
	case errors.Is(err, ErrUsernamePattern):
		return domain.FeedbackUsernameBadPattern
	case errors.Is(err, ErrEmailPattern):
		return domain.FeedbackEmailBadPattern
	case errors.Is(err, ErrEmailRepeatMismatch):
		return domain.FeedbackEmailRepeatWrong
	case errors.Is(err, ErrVerificationMailFailed):
		return domain.FeedbackVerificationMailFailed
	case errors.Is(err, ErrActivationFailed):
		return domain.FeedbackActivationFailed
	case errors.Is(err, ErrCSRFInvalid):
		return domain.FeedbackCSRFInvalid
	default:
		return domain.FeedbackInvalidCredentials
	}
}
