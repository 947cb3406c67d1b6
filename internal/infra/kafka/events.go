package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes auth.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		MaskedEmail  string    `json:"masked_email,omitempty"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		MaskedEmail:  event.MaskedEmail,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishLoginSucceeded publishes auth.login.succeeded events.
func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		Username   string    `json:"username"`
		Method     string    `json:"method"`
		RememberMe bool      `json:"remember_me"`
		LoggedInAt time.Time `json:"logged_in_at"`
	}{
		UserID:     event.UserID,
		Username:   event.Username,
		Method:     event.Method,
		RememberMe: event.RememberMe,
		LoggedInAt: event.LoggedInAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.login.succeeded", event.UserID, event.LoggedInAt, payload)
}

// PublishPasswordResetRequested publishes auth.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		UserID            string    `json:"user_id"`
		Username          string    `json:"username"`
		MaskedDestination string    `json:"masked_destination,omitempty"`
		RequestedAt       time.Time `json:"requested_at"`
		ExpiresAt         time.Time `json:"expires_at"`
	}{
		UserID:            event.UserID,
		Username:          event.Username,
		MaskedDestination: event.MaskedDestination,
		RequestedAt:       event.RequestedAt.UTC(),
		ExpiresAt:         event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.password.reset_requested", event.UserID, event.RequestedAt, payload)
}

// PublishPasswordChanged publishes auth.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		Username  string    `json:"username"`
		ChangedAt time.Time `json:"changed_at"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		ChangedAt: event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishSessionEvicted publishes auth.session.evicted events.
func (p *EventPublisher) PublishSessionEvicted(ctx context.Context, event domain.SessionEvictedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		SessionID string    `json:"session_id"`
		EvictedAt time.Time `json:"evicted_at"`
	}{
		UserID:    event.UserID,
		SessionID: event.SessionID,
		EvictedAt: event.EvictedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.session.evicted", event.UserID, event.EvictedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
