package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/infra/config"
	"github.com/arklim/social-platform-auth/internal/transport/http/handlers"
	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Login         *usecase.LoginService
	Sessions      *usecase.SessionService
	Registration  *usecase.RegistrationService
	PasswordReset *usecase.PasswordResetService
	CSRF          *usecase.CSRFService
	Captcha       *usecase.CaptchaService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Metrics  *middleware.HTTPMetrics
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthHandler := handlers.NewHealthHandler()
	r.GET("/healthz", healthHandler.Status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Session(deps.Services.Sessions))
	{
		authRequired := middleware.RequireAuth(deps.Services.Sessions, deps.Services.Login)
		csrfGuard := middleware.CSRF(deps.Services.CSRF, deps.Services.Login)

		// Every mutation, the login POST included, must present the token
		// issued for the (possibly anonymous) session. Safe methods such as
		// the token and captcha fetches pass through the guard untouched.
		authGroup := api.Group("/auth")
		authGroup.Use(csrfGuard)

		handlers.NewSecurityHandler(deps.Services.CSRF, deps.Services.Captcha).RegisterRoutes(authGroup)
		handlers.NewAuthHandler(deps.Services.Login).RegisterRoutes(authGroup, authRequired)
		handlers.NewRegistrationHandler(deps.Services.Registration).RegisterRoutes(authGroup)
		handlers.NewPasswordResetHandler(deps.Services.PasswordReset).RegisterRoutes(authGroup)

		protected := api.Group("/account")
		protected.Use(authRequired, csrfGuard)
		{
			accountHandler := handlers.NewAccountHandler(deps.Services.Sessions)
			accountHandler.RegisterRoutes(protected, middleware.RequireAdmin(deps.Services.Sessions))
		}
	}

	return r
}
