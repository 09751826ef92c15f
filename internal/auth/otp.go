package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/ridelink/server/internal/model"
	"github.com/ridelink/server/internal/notify"
	"github.com/ridelink/server/internal/phone"
	"github.com/ridelink/server/internal/repo"
)

const otpTTL = 10 * time.Minute

var otpFormat = regexp.MustCompile(`^[0-9]{6}$`)

// AuthService implements the OTP lifecycle: issue a code for a phone number
// and verify it in exchange for a session token.
//
// Verification attempts are unlimited until the code expires or is consumed;
// there is no lockout or attempt counter. Known hardening gap.
type AuthService struct {
	users      repo.UserRepo
	notifier   notify.Notifier // nil when SMS delivery is not configured
	jwtService *JWTService
	normalizer phone.Normalizer
	devMode    bool
	now        func() time.Time
}

// NewAuthService creates a new auth service. notifier may be nil, in which
// case issued codes are returned to the caller on the dev fallback path.
func NewAuthService(
	users repo.UserRepo,
	notifier notify.Notifier,
	jwtService *JWTService,
	normalizer phone.Normalizer,
	devMode bool,
) *AuthService {
	return &AuthService{
		users:      users,
		notifier:   notifier,
		jwtService: jwtService,
		normalizer: normalizer,
		devMode:    devMode,
		now:        time.Now,
	}
}

// IssueResult is the outcome of IssueOTP. Code and ExpiresAt are populated
// only on the dev fallback path, never when the code was delivered by SMS.
type IssueResult struct {
	PhoneNumber string
	Delivered   bool
	Code        string
	ExpiresAt   time.Time
}

// VerifyResult is the outcome of a successful VerifyOTP.
type VerifyResult struct {
	User  model.User
	Token string
}

// IssueOTP generates a 6-digit code for the phone number, stores it with a
// 10-minute expiry (overwriting any outstanding code for that number), and
// attempts SMS delivery. Without a configured notifier, dev mode returns the
// code to the caller and production mode fails with ErrDelivery.
func (s *AuthService) IssueOTP(ctx context.Context, rawPhone string) (IssueResult, error) {
	rawPhone = strings.TrimSpace(rawPhone)
	if rawPhone == "" {
		return IssueResult{}, ErrMissingPhone
	}

	if s.notifier == nil && !s.devMode {
		return IssueResult{}, fmt.Errorf("%w: sms delivery not configured", ErrDelivery)
	}

	normalized := s.normalizer.Normalize(rawPhone)

	code, err := generateCode()
	if err != nil {
		return IssueResult{}, fmt.Errorf("generate code: %w", err)
	}
	expiresAt := s.now().Add(otpTTL)

	if _, err := s.users.UpsertOTP(ctx, normalized, code, expiresAt); err != nil {
		return IssueResult{}, fmt.Errorf("store otp: %w", err)
	}

	if s.notifier != nil {
		message := fmt.Sprintf("Your RideLink verification code is %s. It expires in 10 minutes.", code)
		if err := s.notifier.Send(ctx, normalized, message); err != nil {
			if !s.devMode {
				return IssueResult{}, fmt.Errorf("%w: %v", ErrDelivery, err)
			}
			// Dev mode: delivery failure falls through to the fallback below.
		} else {
			return IssueResult{PhoneNumber: normalized, Delivered: true}, nil
		}
	}

	// Dev fallback: no delivery happened, hand the code back to the caller.
	return IssueResult{
		PhoneNumber: normalized,
		Code:        code,
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyOTP checks the candidate code for the phone number. On a match the
// stored code is cleared (single-use) and a 7-day session token embedding
// the user id and normalized phone number is minted.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, rawCode string) (VerifyResult, error) {
	rawPhone = strings.TrimSpace(rawPhone)
	if rawPhone == "" {
		return VerifyResult{}, ErrMissingPhone
	}
	code := strings.TrimSpace(rawCode)
	if code == "" {
		return VerifyResult{}, ErrMissingCode
	}
	// Format check happens before any store access.
	if !otpFormat.MatchString(code) {
		return VerifyResult{}, ErrBadCodeFormat
	}

	normalized := s.normalizer.Normalize(rawPhone)
	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return VerifyResult{}, ErrUserNotFound
		}
		return VerifyResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasOutstandingOTP() {
		return VerifyResult{}, ErrNoOTPOutstanding
	}

	// An expired code stays stored; only a successful verify or a fresh
	// issue replaces it.
	if user.OTPExpiresAt.Before(s.now()) {
		return VerifyResult{}, ErrOTPExpired
	}

	// String comparison, never numeric: preserves 6-digit semantics.
	if strings.TrimSpace(*user.OTP) != code {
		return VerifyResult{}, ErrCodeMismatch
	}

	if err := s.users.ClearOTP(ctx, user.ID); err != nil {
		return VerifyResult{}, fmt.Errorf("consume otp: %w", err)
	}
	user.OTP = nil
	user.OTPExpiresAt = nil

	token, err := s.jwtService.SignSessionToken(user.ID, user.PhoneNumber)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("sign session token: %w", err)
	}

	return VerifyResult{User: user, Token: token}, nil
}

// generateCode returns a uniformly random code in [100000, 999999], so the
// result is always exactly 6 digits.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
