package auth

import "errors"

// Sentinel errors for the OTP lifecycle. Handlers match these with
// errors.Is to pick the HTTP status.
var (
	// ErrMissingPhone means the phone number was empty or absent.
	ErrMissingPhone = errors.New("phone number is required")
	// ErrMissingCode means the candidate OTP was empty or absent.
	ErrMissingCode = errors.New("otp is required")
	// ErrBadCodeFormat means the candidate OTP is not exactly 6 ASCII digits.
	ErrBadCodeFormat = errors.New("invalid OTP format")
	// ErrUserNotFound means no record exists for the normalized phone number.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoOTPOutstanding means the record has no stored code to verify against.
	ErrNoOTPOutstanding = errors.New("no OTP outstanding")
	// ErrOTPExpired means the stored code's expiry has passed.
	ErrOTPExpired = errors.New("OTP expired")
	// ErrCodeMismatch means the candidate did not match the stored code.
	ErrCodeMismatch = errors.New("invalid OTP")
	// ErrDelivery means the SMS provider failed (or is unconfigured) in
	// production mode.
	ErrDelivery = errors.New("failed to deliver OTP")
)
