package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

// SecurityHandler exposes the CSRF token and captcha challenge endpoints.
type SecurityHandler struct {
	csrf    *usecase.CSRFService
	captcha *usecase.CaptchaService
}

// NewSecurityHandler constructs SecurityHandler.
func NewSecurityHandler(csrf *usecase.CSRFService, captcha *usecase.CaptchaService) *SecurityHandler {
	return &SecurityHandler{csrf: csrf, captcha: captcha}
}

// RegisterRoutes binds the token endpoints.
func (h *SecurityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/csrf", h.csrfToken)
	r.GET("/captcha", h.captchaChallenge)
}

func (h *SecurityHandler) csrfToken(c *gin.Context) {
	state := middleware.StateFrom(c)

	token, err := h.csrf.IssueToken(c.Request.Context(), state)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CSRFTokenResponse{Token: token})
}

func (h *SecurityHandler) captchaChallenge(c *gin.Context) {
	sessionID := ""
	if state := middleware.StateFrom(c); state != nil {
		sessionID = state.ID
	}

	question, err := h.captcha.Challenge(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CaptchaResponse{Question: question})
}
