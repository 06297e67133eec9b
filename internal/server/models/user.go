// Package models holds the plain data records shared by repositories and
// services.
package models

import "time"

// ResetChallenge is an outstanding password-reset code. Only the keyed hash
// of the code is kept.
type ResetChallenge struct {
	CodeHash  string
	ExpiresAt time.Time
}

type User struct {
	ID            string
	Email         string
	FullName      string
	PasswordHash  string
	PhoneNumber   string
	PhoneVerified bool
	IsAdmin       bool
	// Reset is nil when no challenge is outstanding.
	Reset     *ResetChallenge
	CreatedAt time.Time
}

// HasVerifiedPhone reports whether the user can take part in a contact
// exchange right now.
func (u *User) HasVerifiedPhone() bool {
	return u != nil && u.PhoneVerified && u.PhoneNumber != ""
}
