package domain

import "time"

// SessionState is the per-agent state kept in the session store, keyed by
// session identifier. It is created on first touch and destroyed on logout
// or forced invalidation.
type SessionState struct {
	ID          string
	UserID      string
	Username    string
	Email       string
	AccountType int
	LoggedIn    bool

	// Throttling of attempts against identifiers that match no account.
	// These counters are deliberately session-scoped: they bound probing
	// without a database write per failed guess.
	FailedLoginCount int
	LastFailedLogin  *time.Time

	CSRFToken     string
	CSRFTokenTime *time.Time
}

// ClearIdentity drops all identity fields while keeping the throttle
// counters, returning the state to anonymous.
func (s *SessionState) ClearIdentity() {
	s.UserID = ""
	s.Username = ""
	s.Email = ""
	s.AccountType = 0
	s.LoggedIn = false
}

// SessionCookie describes the transport cookie a collaborator must set after
// a session operation. Attributes are explicit on purpose: session cookies
// carry expiry, path, domain, secure and http-only flags.
type SessionCookie struct {
	Name     string
	Value    string
	MaxAge   int
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
}

// Expired reports whether the cookie instructs the client to delete it.
func (c SessionCookie) Expired() bool {
	return c.MaxAge < 0
}
