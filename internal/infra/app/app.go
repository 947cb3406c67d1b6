package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/infra/config"
	"github.com/arklim/social-platform-auth/internal/infra/database"
	kafkainfra "github.com/arklim/social-platform-auth/internal/infra/kafka"
	"github.com/arklim/social-platform-auth/internal/infra/logger"
	"github.com/arklim/social-platform-auth/internal/infra/mail"
	redisinfra "github.com/arklim/social-platform-auth/internal/infra/redis"
	"github.com/arklim/social-platform-auth/internal/infra/security"
	postgresrepo "github.com/arklim/social-platform-auth/internal/repository/postgres"
	redisrepo "github.com/arklim/social-platform-auth/internal/repository/redis"
	"github.com/arklim/social-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/social-platform-auth/internal/transport/http/routes"
	"github.com/arklim/social-platform-auth/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher, err := security.NewPasswordHasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	codec, err := security.NewCodec(cfg.Security.EncryptionKey, cfg.Security.HMACSalt)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	credentialRepo := postgresrepo.NewCredentialRepository(pool)
	sessionRepo := redisrepo.NewSessionRepository(redisClient.Client(), cfg.Redis.SessionPrefix)
	rateLimitRepo := redisrepo.NewRateLimitRepository(redisClient.Client(), "rate_limit", cfg.RateLimit.WindowDuration)
	captchaRepo := redisrepo.NewCaptchaRepository(redisClient.Client(), "captcha")

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	mailer := mail.NewSMTPSender(cfg.Mail, log)
	validator := security.DefaultPasswordValidator()

	sessions := usecase.NewSessionService(credentialRepo, sessionRepo, eventPublisher, usecase.SessionConfig{
		Runtime:      cfg.Session.Runtime,
		CookiePath:   cfg.Cookie.Path,
		CookieDomain: cfg.Cookie.Domain,
		CookieSecure: cfg.Cookie.Secure,
	}, log)

	throttle := usecase.NewThrottleGuard(cfg.Throttle.MaxFailures, cfg.Throttle.Cooldown)

	captcha := usecase.NewCaptchaService(captchaRepo)

	login := usecase.NewLoginService(credentialRepo, sessions, throttle, hasher, codec, eventPublisher,
		usecase.RememberCookieConfig{
			Runtime: cfg.Cookie.Runtime,
			Path:    cfg.Cookie.Path,
			Domain:  cfg.Cookie.Domain,
			Secure:  cfg.Cookie.Secure,
		}, log)

	resets := usecase.NewPasswordResetService(credentialRepo, rateLimitRepo, mailer, captcha, eventPublisher,
		hasher, validator,
		usecase.ResetMailConfig{
			From:    cfg.Mail.ResetFrom,
			Subject: cfg.Mail.ResetSubject,
			BaseURL: cfg.App.BaseURL,
		},
		usecase.ResetRateLimit{
			MaxAttempts: cfg.RateLimit.PasswordResetMaxAttempts,
			Window:      cfg.RateLimit.WindowDuration,
		}, log)

	registration := usecase.NewRegistrationService(credentialRepo, mailer, captcha, eventPublisher,
		hasher, validator,
		usecase.VerifyMailConfig{
			From:    cfg.Mail.VerifyFrom,
			Subject: cfg.Mail.VerifySubject,
			BaseURL: cfg.App.BaseURL,
		}, log)

	csrf := usecase.NewCSRFService(sessions, 24*time.Hour)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Services: routes.ServiceSet{
			Login:         login,
			Sessions:      sessions,
			Registration:  registration,
			PasswordReset: resets,
			CSRF:          csrf,
			Captcha:       captcha,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
