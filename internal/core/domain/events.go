package domain

import "time"

// UserRegisteredEvent is published after a new account row is created and the
// verification mail went out.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	MaskedEmail  string
	RegisteredAt time.Time
}

// LoginSucceededEvent is published on successful password or cookie login.
type LoginSucceededEvent struct {
	EventID    string
	UserID     string
	Username   string
	Method     string // "password" or "cookie"
	RememberMe bool
	LoggedInAt time.Time
}

// PasswordResetRequestedEvent is published when a reset token is issued.
// Destination is masked before publishing; the raw token never leaves the
// mail path.
type PasswordResetRequestedEvent struct {
	EventID           string
	UserID            string
	Username          string
	MaskedDestination string
	RequestedAt       time.Time
	ExpiresAt         time.Time
}

// PasswordChangedEvent is published when a reset token is consumed and a new
// password hash is written.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	Username  string
	ChangedAt time.Time
}

// SessionEvictedEvent is published when a concurrent login forces an older
// session out.
type SessionEvictedEvent struct {
	EventID   string
	UserID    string
	SessionID string
	EvictedAt time.Time
}
