package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/repository"
)

const captchaTTL = 10 * time.Minute

// CaptchaService issues simple arithmetic challenges and verifies answers.
// The expected answer lives in the captcha store keyed by session, so a
// challenge belongs to exactly one agent and is consumed on first check.
type CaptchaService struct {
	store port.CaptchaStore
}

// NewCaptchaService constructs the captcha service.
func NewCaptchaService(store port.CaptchaStore) *CaptchaService {
	return &CaptchaService{store: store}
}

// Challenge issues a new challenge for the session and returns its question.
// Any prior challenge for the session is replaced.
func (s *CaptchaService) Challenge(ctx context.Context, sessionID string) (string, error) {
	a, err := randomInt(10)
	if err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	b, err := randomInt(10)
	if err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}

	answer := strconv.Itoa(a + b)
	if err := s.store.Save(ctx, sessionID, answer, captchaTTL); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d + %d", a, b), nil
}

// Verify consumes the stored answer and compares it against the submitted
// one. A missing or expired challenge never verifies.
func (s *CaptchaService) Verify(ctx context.Context, sessionID, answer string) (bool, error) {
	expected, err := s.store.Consume(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	submitted := strings.TrimSpace(answer)
	if submitted == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1, nil
}

func randomInt(max int64) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 1, nil
}

var _ port.CaptchaVerifier = (*CaptchaService)(nil)
