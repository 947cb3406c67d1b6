package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

const sessionStateKey = "session_state"

// Session resolves the per-agent session state from the session cookie,
// minting a fresh identifier on first contact, and places it in the request
// context for handlers downstream.
func Session(sessions *usecase.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(usecase.SessionCookieName)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			SetCookie(c, domain.SessionCookie{
				Name:     usecase.SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HTTPOnly: true,
			})
		}

		state, err := sessions.Load(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		c.Set(sessionStateKey, state)
		c.Next()
	}
}

// StateFrom returns the session state placed by the Session middleware.
func StateFrom(c *gin.Context) *domain.SessionState {
	if value, ok := c.Get(sessionStateKey); ok {
		if state, ok := value.(*domain.SessionState); ok {
			return state
		}
	}
	return nil
}

// SetCookie writes a session cookie onto the response.
func SetCookie(c *gin.Context, cookie domain.SessionCookie) {
	c.SetCookie(cookie.Name, cookie.Value, cookie.MaxAge, cookie.Path, cookie.Domain, cookie.Secure, cookie.HTTPOnly)
}

// RequireAuth gates a route on an authenticated session. A live session is
// first checked against the recorded session id; if no session is live but a
// remember-me cookie is present, a cookie login is attempted transparently.
// On any failure the remember-me cookie is cleared so the agent cannot loop.
func RequireAuth(sessions *usecase.SessionService, login *usecase.LoginService) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := StateFrom(c)

		if err := sessions.CheckConcurrency(c.Request.Context(), state); err != nil {
			if errors.Is(err, usecase.ErrSessionEvicted) {
				SetCookie(c, login.ExpiredRememberCookie())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session taken over by a newer login"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		if state != nil && state.LoggedIn {
			c.Next()
			return
		}

		raw, err := c.Cookie(usecase.RememberMeCookieName)
		if err == nil && raw != "" {
			result, lerr := login.LoginWithCookie(c.Request.Context(), state, raw)
			if lerr == nil {
				SetCookie(c, result.SessionCookie)
				c.Set(sessionStateKey, result.State)
				c.Next()
				return
			}
			SetCookie(c, login.ExpiredRememberCookie())
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

// RequireAdmin gates a route on an authenticated administrator session. It
// must run after RequireAuth.
func RequireAdmin(sessions *usecase.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := StateFrom(c)
		if err := sessions.CheckAdminAuthentication(c.Request.Context(), state); err != nil {
			if errors.Is(err, usecase.ErrNotAuthorized) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CSRFHeader is the request header carrying the anti-forgery token.
const CSRFHeader = "X-CSRF-Token"

// CSRF validates the anti-forgery token on state-changing requests. Safe
// methods pass through untouched. A failed check is treated as a potential
// hijack: the session is terminated, the remember-me credential revoked and
// both cookies expired before the rejection is sent.
func CSRF(csrf *usecase.CSRFService, login *usecase.LoginService) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token := c.GetHeader(CSRFHeader)
		if token == "" {
			token = c.PostForm("csrf_token")
		}

		state := StateFrom(c)
		if err := csrf.Validate(state, token); err != nil {
			sessionCookie, rememberCookie, lerr := login.Logout(c.Request.Context(), state)
			if lerr != nil {
				sessionCookie = domain.SessionCookie{Name: usecase.SessionCookieName, MaxAge: -1, Path: "/", HTTPOnly: true}
				rememberCookie = login.ExpiredRememberCookie()
			}
			SetCookie(c, sessionCookie)
			SetCookie(c, rememberCookie)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": string(domain.FeedbackCSRFInvalid)})
			return
		}
		c.Next()
	}
}
