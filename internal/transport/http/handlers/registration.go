package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

// RegistrationHandler exposes signup and account activation endpoints.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registration *usecase.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// RegisterRoutes binds registration routes.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.GET("/register/verify", h.verify)
}

func (h *RegistrationHandler) register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid registration payload"})
		return
	}

	sessionID := ""
	if state := middleware.StateFrom(c); state != nil {
		sessionID = state.ID
	}

	user, err := h.registration.Register(c.Request.Context(), sessionID, usecase.RegistrationInput{
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.TrimSpace(req.Email),
		EmailRepeat:    strings.TrimSpace(req.EmailRepeat),
		Password:       req.Password,
		PasswordRepeat: req.PasswordRepeat,
		CaptchaAnswer:  req.Captcha,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		UserID:  user.ID,
		Message: string(domain.FeedbackAccountCreated),
	})
}

// verify activates the account; the link from the verification mail lands
// here.
func (h *RegistrationHandler) verify(c *gin.Context) {
	userID := c.Query("user_id")
	token := c.Query("token")

	if err := h.registration.VerifyNewUser(c.Request.Context(), userID, token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: string(domain.FeedbackActivationSuccessful)})
}
