package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"username":      event.Username,
		"masked_email":  event.MaskedEmail,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("auth.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishLoginSucceeded logs auth.login.succeeded events.
func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"username":     event.Username,
		"method":       event.Method,
		"remember_me":  event.RememberMe,
		"logged_in_at": event.LoggedInAt,
	}
	p.logEvent("auth.login.succeeded", event.UserID, event.LoggedInAt, payload)
	return nil
}

// PublishPasswordResetRequested logs auth.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"user_id":            event.UserID,
		"username":           event.Username,
		"masked_destination": event.MaskedDestination,
		"requested_at":       event.RequestedAt,
		"expires_at":         event.ExpiresAt,
	}
	p.logEvent("auth.password.reset_requested", event.UserID, event.RequestedAt, payload)
	return nil
}

// PublishPasswordChanged logs auth.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"username":   event.Username,
		"changed_at": event.ChangedAt,
	}
	p.logEvent("auth.password.changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishSessionEvicted logs auth.session.evicted events.
func (p *StubPublisher) PublishSessionEvicted(_ context.Context, event domain.SessionEvictedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"session_id": event.SessionID,
		"evicted_at": event.EvictedAt,
	}
	p.logEvent("auth.session.evicted", event.UserID, event.EvictedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
