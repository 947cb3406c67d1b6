package domain

import "time"

// ProviderType identifies how an account was created. Only DEFAULT accounts
// participate in password and remember-me cookie flows.
type ProviderType string

const (
	ProviderDefault  ProviderType = "DEFAULT"
	ProviderExternal ProviderType = "EXTERNAL"
)

// Account types. Admin gates use AccountTypeAdmin as the sentinel.
const (
	AccountTypeNormal  = 1
	AccountTypePremium = 2
	AccountTypeAdmin   = 7
)

// User mirrors the persisted representation in the users table.
type User struct {
	ID                 string
	Username           string
	Email              string
	PasswordHash       string
	RememberMeToken    *string
	FailedLogins       int
	LastFailedLogin    *time.Time
	Active             bool
	Deleted            bool
	SuspensionUntil    *time.Time
	ResetHash          *string
	ResetTimestamp     *time.Time
	SessionID          *string
	ActivationHash     *string
	ProviderType       ProviderType
	AccountType        int
	CreatedAt          time.Time
	LastLoginAt        *time.Time
}

// IsSuspended reports whether the account suspension is still in effect.
func (u User) IsSuspended(at time.Time) bool {
	return u.SuspensionUntil != nil && u.SuspensionUntil.After(at)
}

// SuspensionHoursLeft returns the remaining suspension time in hours,
// rounded to two decimals for display.
func (u User) SuspensionHoursLeft(at time.Time) float64 {
	if u.SuspensionUntil == nil {
		return 0
	}
	hours := u.SuspensionUntil.Sub(at).Hours()
	if hours < 0 {
		hours = -hours
	}
	return float64(int(hours*100+0.5)) / 100
}
