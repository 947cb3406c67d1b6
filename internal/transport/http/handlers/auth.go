package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

// AuthHandler exposes login, cookie login and logout endpoints.
type AuthHandler struct {
	login *usecase.LoginService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(login *usecase.LoginService) *AuthHandler {
	return &AuthHandler{login: login}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authRequired gin.HandlerFunc) {
	r.POST("/login", h.loginWithPassword)
	r.POST("/login/cookie", h.loginWithCookie)
	r.POST("/logout", authRequired, h.logout)
}

func (h *AuthHandler) loginWithPassword(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid login payload"})
		return
	}

	state := middleware.StateFrom(c)
	result, err := h.login.Login(c.Request.Context(), state, strings.TrimSpace(req.Identifier), req.Password, req.RememberMe)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetCookie(c, result.SessionCookie)
	if result.RememberCookie != nil {
		middleware.SetCookie(c, *result.RememberCookie)
	}

	c.JSON(http.StatusOK, LoginResponse{User: newUserSummary(result.User)})
}

// loginWithCookie authenticates using only the remember-me cookie. On any
// failure the cookie is cleared so the agent stops presenting it.
func (h *AuthHandler) loginWithCookie(c *gin.Context) {
	raw, _ := c.Cookie(usecase.RememberMeCookieName)

	state := middleware.StateFrom(c)
	result, err := h.login.LoginWithCookie(c.Request.Context(), state, raw)
	if err != nil {
		middleware.SetCookie(c, h.login.ExpiredRememberCookie())
		respondError(c, err)
		return
	}

	middleware.SetCookie(c, result.SessionCookie)
	c.JSON(http.StatusOK, LoginResponse{User: newUserSummary(result.User)})
}

func (h *AuthHandler) logout(c *gin.Context) {
	state := middleware.StateFrom(c)

	sessionCookie, rememberCookie, err := h.login.Logout(c.Request.Context(), state)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetCookie(c, sessionCookie)
	middleware.SetCookie(c, rememberCookie)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func newUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		AccountType: user.AccountType,
		LastLoginAt: user.LastLoginAt,
	}
}
