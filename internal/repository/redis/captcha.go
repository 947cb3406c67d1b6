package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/repository"
)

const defaultCaptchaPrefix = "captcha"

// CaptchaRepository keeps the expected captcha answer per session in Redis.
// Answers expire with the challenge and are removed on first read.
type CaptchaRepository struct {
	client *red.Client
	prefix string
}

// NewCaptchaRepository constructs a captcha store with the provided Redis
// client and key prefix.
func NewCaptchaRepository(client *red.Client, keyPrefix string) *CaptchaRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultCaptchaPrefix
	}
	return &CaptchaRepository{client: client, prefix: prefix}
}

// Save stores the expected answer for the given session, replacing any prior
// challenge.
func (r *CaptchaRepository) Save(ctx context.Context, sessionID, answer string, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if answer == "" {
		return errors.New("answer is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := r.client.Set(ctx, r.key(sessionID), answer, ttl).Err(); err != nil {
		return fmt.Errorf("save captcha answer: %w", err)
	}
	return nil
}

// Consume returns the stored answer and deletes it, so a challenge can be
// checked at most once.
func (r *CaptchaRepository) Consume(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}

	answer, err := r.client.GetDel(ctx, r.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("consume captcha answer: %w", err)
	}
	return answer, nil
}

func (r *CaptchaRepository) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, sessionID)
}

var _ port.CaptchaStore = (*CaptchaRepository)(nil)
