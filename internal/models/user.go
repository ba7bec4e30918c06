// Package models defines the core data structures for users and notes.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is unique across users and stored lower-cased.
	Email string `json:"email"`
	// Role gates route access.
	Role Role `json:"role"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`
	// ResetPasswordToken is the sha256 hex of an outstanding reset token.
	ResetPasswordToken string `json:"-"`
	// ResetPasswordExpire is when ResetPasswordToken stops being accepted.
	ResetPasswordExpire *time.Time `json:"-"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"createdAt"`
}

// ClearResetToken drops any outstanding password reset token.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}
