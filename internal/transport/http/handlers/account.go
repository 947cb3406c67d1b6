package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

// AccountHandler exposes the authenticated account surface.
type AccountHandler struct {
	sessions *usecase.SessionService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(sessions *usecase.SessionService) *AccountHandler {
	return &AccountHandler{sessions: sessions}
}

// RegisterRoutes binds account routes; adminGate additionally guards the
// administrative surface.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup, adminGate gin.HandlerFunc) {
	r.GET("/me", h.me)
	r.GET("/admin/status", adminGate, h.adminStatus)
}

func (h *AccountHandler) me(c *gin.Context) {
	state := middleware.StateFrom(c)

	c.JSON(http.StatusOK, gin.H{
		"user_id":      state.UserID,
		"username":     state.Username,
		"email":        state.Email,
		"account_type": state.AccountType,
	})
}

func (h *AccountHandler) adminStatus(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "admin session active"})
}
