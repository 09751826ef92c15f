package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a rider account keyed by canonical phone number.
// OTP and OTPExpiresAt are set together while a code is outstanding and
// cleared together when it is consumed; never one without the other.
type User struct {
	ID           uuid.UUID
	PhoneNumber  string
	OTP          *string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
}

// HasOutstandingOTP reports whether a code is currently stored for the user.
func (u User) HasOutstandingOTP() bool {
	return u.OTP != nil && u.OTPExpiresAt != nil
}
