package models

import "time"

// Event types recorded for account activity.
const (
	EventUserRegister       = "user.register"
	EventUserLogin          = "user.login"
	EventUserLoginFail      = "user.login.fail"
	EventUserLogout         = "user.logout"
	EventUserPasswordChange = "user.password.change"
)

// Event represents an audit entry for something an account did.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.login"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
