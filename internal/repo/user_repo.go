package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridelink/server/internal/model"
)

// ErrNotFound is returned when no user exists for the given key.
var ErrNotFound = errors.New("user not found")

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	UpsertOTP(ctx context.Context, phone, code string, expiresAt time.Time) (model.User, error)
	ClearOTP(ctx context.Context, userID uuid.UUID) error
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	query := `
		SELECT id, phone_number, otp, otp_expires_at, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a user by canonical phone number
func (r *userRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	query := `
		SELECT id, phone_number, otp, otp_expires_at, created_at
		FROM users
		WHERE phone_number = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, phone))
}

// UpsertOTP creates the user for the phone number if absent, otherwise
// overwrites the outstanding code and expiry. The whole operation is one
// statement, so concurrent issues for the same number race at the row
// level and the last write wins (acceptable for a human-paced OTP flow).
func (r *userRepo) UpsertOTP(ctx context.Context, phone, code string, expiresAt time.Time) (model.User, error) {
	query := `
		INSERT INTO users (phone_number, otp, otp_expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO UPDATE
		SET otp = EXCLUDED.otp, otp_expires_at = EXCLUDED.otp_expires_at, updated_at = now()
		RETURNING id, phone_number, otp, otp_expires_at, created_at
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, phone, code, expiresAt))
}

// ClearOTP removes the outstanding code from the user record (single-use consumption).
func (r *userRepo) ClearOTP(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET otp = NULL, otp_expires_at = NULL, updated_at = now() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	var idStr string
	err := row.Scan(
		&idStr,
		&user.PhoneNumber,
		&user.OTP,
		&user.OTPExpiresAt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return user, nil
}
