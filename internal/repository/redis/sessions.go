package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
)

const (
	defaultSessionPrefix = "auth:session"

	fieldUserID           = "user_id"
	fieldUsername         = "user_name"
	fieldEmail            = "user_email"
	fieldAccountType      = "account_type"
	fieldLoggedIn         = "logged_in"
	fieldFailedLoginCount = "failed_login_count"
	fieldLastFailedLogin  = "last_failed_login"
	fieldCSRFToken        = "csrf_token"
	fieldCSRFTokenTime    = "csrf_token_time"
)

// SessionRepository persists per-agent session state in Redis hashes keyed by
// session identifier.
type SessionRepository struct {
	client *red.Client
	prefix string
}

// NewSessionRepository constructs a session store with the provided client
// and key prefix.
func NewSessionRepository(client *red.Client, keyPrefix string) *SessionRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionRepository{client: client, prefix: prefix}
}

// Get loads the state for a session id. A session that does not exist yet is
// returned as a fresh zero state bound to the id: session state is created on
// first touch.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	values, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	state := &domain.SessionState{ID: sessionID}
	if len(values) == 0 {
		return state, nil
	}

	state.UserID = values[fieldUserID]
	state.Username = values[fieldUsername]
	state.Email = values[fieldEmail]
	state.CSRFToken = values[fieldCSRFToken]

	if v := values[fieldAccountType]; v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			state.AccountType = parsed
		}
	}
	if v := values[fieldLoggedIn]; v != "" {
		state.LoggedIn = v == "1"
	}
	if v := values[fieldFailedLoginCount]; v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			state.FailedLoginCount = parsed
		}
	}
	if ts, ok := parseUnix(values[fieldLastFailedLogin]); ok {
		state.LastFailedLogin = &ts
	}
	if ts, ok := parseUnix(values[fieldCSRFTokenTime]); ok {
		state.CSRFTokenTime = &ts
	}

	return state, nil
}

// Save writes the full state and refreshes the TTL.
func (r *SessionRepository) Save(ctx context.Context, state *domain.SessionState, ttl time.Duration) error {
	if state == nil || state.ID == "" {
		return errors.New("session state with id is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	loggedIn := "0"
	if state.LoggedIn {
		loggedIn = "1"
	}

	fields := map[string]any{
		fieldUserID:           state.UserID,
		fieldUsername:         state.Username,
		fieldEmail:            state.Email,
		fieldAccountType:      strconv.Itoa(state.AccountType),
		fieldLoggedIn:         loggedIn,
		fieldFailedLoginCount: strconv.Itoa(state.FailedLoginCount),
		fieldLastFailedLogin:  formatUnix(state.LastFailedLogin),
		fieldCSRFToken:        state.CSRFToken,
		fieldCSRFTokenTime:    formatUnix(state.CSRFTokenTime),
	}

	key := r.key(state.ID)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}

	return nil
}

// Delete destroys the session state.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}

	return nil
}

func (r *SessionRepository) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, sessionID)
}

func parseUnix(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

func formatUnix(t *time.Time) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}

var _ port.SessionStore = (*SessionRepository)(nil)
