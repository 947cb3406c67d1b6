package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig aggregates every runtime setting of the service.
type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Mail      MailSettings      `mapstructure:"mail"`
	Session   SessionSettings   `mapstructure:"session"`
	Cookie    CookieSettings    `mapstructure:"cookie"`
	Security  SecuritySettings  `mapstructure:"security"`
	Throttle  ThrottleSettings  `mapstructure:"throttle"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// BaseURL is prepended to links embedded in outbound mail.
	BaseURL string `mapstructure:"base_url"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection used for session state and
// rate-limit windows.
type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	SessionPrefix string `mapstructure:"session_prefix"`
}

// KafkaSettings configures the auth event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// MailSettings configures outbound SMTP delivery and the sender identities
// used by the verification and password-reset mails.
type MailSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	ResetFrom     string `mapstructure:"reset_from"`
	ResetSubject  string `mapstructure:"reset_subject"`
	VerifyFrom    string `mapstructure:"verify_from"`
	VerifySubject string `mapstructure:"verify_subject"`
}

// SessionSettings governs the session lifetime.
type SessionSettings struct {
	Runtime time.Duration `mapstructure:"runtime"`
}

// CookieSettings carries the explicit attributes for the session and
// remember-me cookies.
type CookieSettings struct {
	Runtime  time.Duration `mapstructure:"runtime"`
	Path     string        `mapstructure:"path"`
	Domain   string        `mapstructure:"domain"`
	Secure   bool          `mapstructure:"secure"`
	HTTPOnly bool          `mapstructure:"http_only"`
}

// SecuritySettings holds the long-term secrets of the token codec.
type SecuritySettings struct {
	EncryptionKey string `mapstructure:"encryption_key"`
	HMACSalt      string `mapstructure:"hmac_salt"`
}

// ThrottleSettings governs the failed-login cooldown. Both the per-user and
// the unknown-identifier counters share this policy.
type ThrottleSettings struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// RateLimitSettings configures the sliding-window limiter guarding
// password-reset requests.
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// Load reads configuration from the environment (prefix AUTH, dots become
// underscores), with a best-effort .env file for development.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("AUTH")
	v.AutomaticEnv()

	setDefaults(v)

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "social-platform-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "auth")
	v.SetDefault("postgres.database", "auth")
	v.SetDefault("postgres.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.session_prefix", "auth:session")

	v.SetDefault("kafka.topic_prefix", "auth")

	v.SetDefault("mail.port", 25)
	v.SetDefault("mail.reset_subject", "Password reset")
	v.SetDefault("mail.verify_subject", "Account activation")

	v.SetDefault("session.runtime", 604800*time.Second)

	v.SetDefault("cookie.runtime", 1209600*time.Second)
	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.http_only", true)

	v.SetDefault("throttle.max_failures", 3)
	v.SetDefault("throttle.cooldown", 30*time.Second)

	v.SetDefault("rate_limit.window_duration", time.Hour)
	v.SetDefault("rate_limit.password_reset_max_attempts", 5)

	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)
}

func (c *AppConfig) validate() error {
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("config: security.encryption_key is required")
	}
	if c.Security.HMACSalt == "" {
		return fmt.Errorf("config: security.hmac_salt is required")
	}
	if c.Session.Runtime <= 0 {
		return fmt.Errorf("config: session.runtime must be positive")
	}
	if c.Throttle.MaxFailures <= 0 || c.Throttle.Cooldown <= 0 {
		return fmt.Errorf("config: throttle settings must be positive")
	}
	return nil
}
