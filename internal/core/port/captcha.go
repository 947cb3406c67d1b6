package port

import (
	"context"
	"time"
)

// CaptchaVerifier checks a captcha answer for the current agent. The
// challenge itself is rendered by collaborators.
type CaptchaVerifier interface {
	Verify(ctx context.Context, sessionID, answer string) (bool, error)
}

// CaptchaStore keeps the expected answer for the challenge last issued to an
// agent. Consume removes the answer so each challenge is checked once.
type CaptchaStore interface {
	Save(ctx context.Context, sessionID, answer string, ttl time.Duration) error
	Consume(ctx context.Context, sessionID string) (string, error)
}
