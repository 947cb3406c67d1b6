package port

import (
	"context"

	"github.com/arklim/social-platform-auth/internal/core/domain"
)

// EventPublisher publishes auth domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishSessionEvicted(ctx context.Context, event domain.SessionEvictedEvent) error
}
