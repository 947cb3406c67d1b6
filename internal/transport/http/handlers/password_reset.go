package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

// PasswordResetHandler exposes the reset token lifecycle endpoints.
type PasswordResetHandler struct {
	resets *usecase.PasswordResetService
}

// NewPasswordResetHandler constructs PasswordResetHandler.
func NewPasswordResetHandler(resets *usecase.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{resets: resets}
}

// RegisterRoutes binds password reset routes.
func (h *PasswordResetHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/password-reset/request", h.request)
	r.GET("/password-reset/verify", h.verify)
	r.POST("/password-reset/confirm", h.confirm)
}

func (h *PasswordResetHandler) request(c *gin.Context) {
	var req ResetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid reset payload"})
		return
	}

	sessionID := ""
	if state := middleware.StateFrom(c); state != nil {
		sessionID = state.ID
	}

	if err := h.resets.Request(c.Request.Context(), sessionID, strings.TrimSpace(req.Identifier), req.Captcha); err != nil {
		var limited *usecase.RateLimitedError
		if errors.As(err, &limited) {
			c.Header("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: string(domain.FeedbackResetMailSent)})
}

// verify gates the new-password form: the link from the mail lands here first.
func (h *PasswordResetHandler) verify(c *gin.Context) {
	username := c.Query("username")
	token := c.Query("token")

	if err := h.resets.Verify(c.Request.Context(), username, token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: string(domain.FeedbackResetLinkValid)})
}

func (h *PasswordResetHandler) confirm(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid reset payload"})
		return
	}

	if err := h.resets.SetNewPassword(c.Request.Context(), req.Username, req.Token, req.Password, req.PasswordRepeat); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: string(domain.FeedbackPasswordChanged)})
}
