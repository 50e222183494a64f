package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse is returned by login and refresh. Refresh leaves the refresh
// fields empty.
type AuthResponse struct {
	TokenType        string        `json:"token_type"`
	AccessToken      string        `json:"access_token"`
	ExpiresAt        time.Time     `json:"expires_at"`
	RefreshToken     string        `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time    `json:"refresh_expires_at,omitempty"`
	User             *UserResponse `json:"user,omitempty"`
}

// AccountRequest is the user part of every account-creating payload.
type AccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// ActiveRequest toggles an account or profile.
type ActiveRequest struct {
	Active *bool `json:"active"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Phone         string      `json:"phone,omitempty"`
	Role          domain.Role `json:"role"`
	IsActive      bool        `json:"is_active"`
	EmailVerified bool        `json:"email_verified"`
	LastLoginAt   *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// AccountCreatedResponse includes the generated password when the caller
// did not supply one.
type AccountCreatedResponse struct {
	User              UserResponse `json:"user"`
	Profile           any          `json:"profile,omitempty"`
	TemporaryPassword string       `json:"temporary_password,omitempty"`
}
