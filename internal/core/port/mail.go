package port

import "context"

// MailSender delivers outbound mail. Implementations must not retry
// internally; callers decide what a delivery failure means for their flow.
type MailSender interface {
	Send(ctx context.Context, to, from, subject, body string) error
}
