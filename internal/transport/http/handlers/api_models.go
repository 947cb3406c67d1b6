package handlers

import "time"

// ErrorResponse carries a feedback key readable by API clients.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a simple feedback key for successful operations.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// UserSummary is the minimal view of a user returned after login.
type UserSummary struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	AccountType int        `json:"account_type"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse is returned by successful password and cookie logins.
type LoginResponse struct {
	User UserSummary `json:"user"`
}

// RegistrationRequest defines the payload for the signup endpoint.
type RegistrationRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	EmailRepeat    string `json:"email_repeat"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
	Captcha        string `json:"captcha"`
}

// RegistrationResponse is returned after a successful signup.
type RegistrationResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ResetRequestRequest defines the payload for requesting a password reset.
type ResetRequestRequest struct {
	Identifier string `json:"identifier"`
	Captcha    string `json:"captcha"`
}

// ResetConfirmRequest defines the payload for submitting a new password.
type ResetConfirmRequest struct {
	Username       string `json:"username"`
	Token          string `json:"token"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}

// CSRFTokenResponse carries the session's anti-forgery token.
type CSRFTokenResponse struct {
	Token string `json:"token"`
}

// CaptchaResponse carries the question an agent must answer.
type CaptchaResponse struct {
	Question string `json:"question"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
