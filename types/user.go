package types

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned at sign-up.
	ID uuid.UUID `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// It is nil for accounts that cannot authenticate with a password and
	// is never exposed in API responses.
	PasswordHash *string `json:"-" db:"password_hash"`

	// DisplayName is the user's display or full name.
	DisplayName string `json:"display_name" db:"display_name"`

	// Role indicates the user's authorization level or role
	// within the system (e.g., "admin", "user").
	Role string `json:"user_role" db:"user_role"`

	// IsActive reports whether the account is active.
	IsActive bool `json:"is_active" db:"is_active"`

	// LastLogin is the timestamp of the most recent successful login,
	// nil until the user logs in for the first time.
	LastLogin *time.Time `json:"last_login" db:"last_login"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
