package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/infra/config"
)

// SMTPSender delivers mail over plain SMTP with optional AUTH. Delivery is a
// single attempt; callers decide whether a failure rolls their flow back.
type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	logger *zap.Logger
}

// NewSMTPSender constructs a sender from the mail settings. AUTH is enabled
// only when a username is configured.
func NewSMTPSender(cfg config.MailSettings, logger *zap.Logger) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:   auth,
		logger: logger,
	}
}

// Send delivers a single plain-text message. The context deadline bounds the
// whole exchange; smtp.SendMail itself does not take a context.
func (s *SMTPSender) Send(ctx context.Context, to, from, subject, body string) error {
	if to == "" || from == "" {
		return fmt.Errorf("mail: recipient and sender are required")
	}

	msg := buildMessage(to, from, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, s.auth, from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail: %w", ctx.Err())
	}
}

func buildMessage(to, from, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

var _ port.MailSender = (*SMTPSender)(nil)
