package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// New returns a singleton zap.Logger configured for structured logging.
func New(env string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if env != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		lg, err = cfg.Build()
	})

	return lg, err
}

// RequestIDKey is the context key under which the request correlation id is
// stored.
type RequestIDKey struct{}

// MaskIP masks the host part of an address, keeping the first octet of IPv4
// addresses. 192.***
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}
	if idx := strings.Index(ip, "."); idx > 0 {
		return ip[:idx] + ".***"
	}
	return "***"
}

// MaskEmail masks an email address, keeping up to three leading characters
// and the domain. joh***@example.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	idx := strings.Index(email, "@")
	if idx <= 0 {
		return "***"
	}

	local := email[:idx]
	if len(local) > 3 {
		local = local[:3]
	} else {
		local = ""
	}
	return local + "***" + email[idx:]
}

// MaskString masks an arbitrary sensitive value, keeping two characters at
// each end when the value is long enough.
func MaskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}
