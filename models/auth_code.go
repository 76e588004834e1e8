package models

import "time"

// AuthCodeTTL is how long an issued code stays valid.
const AuthCodeTTL = 10 * time.Minute

// AuthCode is a one-time numeric credential proving control of an email
// address. At most one live code exists per email; issuing a new one
// overwrites the previous row.
type AuthCode struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// Expired reports whether the code is past its validity window.
func (a *AuthCode) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}
