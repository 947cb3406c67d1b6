package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-auth/internal/usecase"
)

// statusFor resolves a usecase error to an HTTP status code. Unmapped errors
// are treated as internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrEmptyCredential),
		errors.Is(err, usecase.ErrPasswordFieldEmpty),
		errors.Is(err, usecase.ErrPasswordRepeatMismatch),
		errors.Is(err, usecase.ErrPasswordTooWeak),
		errors.Is(err, usecase.ErrUsernamePattern),
		errors.Is(err, usecase.ErrEmailPattern),
		errors.Is(err, usecase.ErrEmailRepeatMismatch),
		errors.Is(err, usecase.ErrCaptchaWrong):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrCookieInvalid),
		errors.Is(err, usecase.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrAccountDeleted),
		errors.Is(err, usecase.ErrAccountSuspended),
		errors.Is(err, usecase.ErrAccountNotActivated),
		errors.Is(err, usecase.ErrNotAuthorized),
		errors.Is(err, usecase.ErrCSRFInvalid):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrUserDoesNotExist),
		errors.Is(err, usecase.ErrResetCombinationNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrResetLinkExpired),
		errors.Is(err, usecase.ErrPasswordChangeFailed),
		errors.Is(err, usecase.ErrActivationFailed):
		return http.StatusGone
	case errors.Is(err, usecase.ErrUsernameTaken),
		errors.Is(err, usecase.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrTooManyAttempts),
		errors.Is(err, usecase.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, usecase.ErrResetMailFailed),
		errors.Is(err, usecase.ErrVerificationMailFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status with the error's feedback key as the
// body. Internal errors collapse to an opaque message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: string(usecase.FeedbackFor(err))})
}
