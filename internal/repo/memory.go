package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ridelink/server/internal/model"
)

// MemoryUserRepo is an in-memory UserRepo used for deterministic tests
// without a database. Safe for concurrent use.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byPhone map[string]*model.User
}

// NewMemoryUserRepo creates an empty in-memory user repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byPhone: make(map[string]*model.User)}
}

// GetByID retrieves a user by ID
func (r *MemoryUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byPhone {
		if u.ID.String() == id {
			return *u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// GetByPhone retrieves a user by canonical phone number
func (r *MemoryUserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byPhone[phone]; ok {
		return *u, nil
	}
	return model.User{}, ErrNotFound
}

// UpsertOTP creates or updates the record for the phone number, overwriting
// any outstanding code.
func (r *MemoryUserRepo) UpsertOTP(ctx context.Context, phone, code string, expiresAt time.Time) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byPhone[phone]
	if !ok {
		u = &model.User{
			ID:          uuid.New(),
			PhoneNumber: phone,
			CreatedAt:   time.Now(),
		}
		r.byPhone[phone] = u
	}
	c := code
	e := expiresAt
	u.OTP = &c
	u.OTPExpiresAt = &e
	return *u, nil
}

// ClearOTP removes the outstanding code from the user record.
func (r *MemoryUserRepo) ClearOTP(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byPhone {
		if u.ID == userID {
			u.OTP = nil
			u.OTPExpiresAt = nil
			return nil
		}
	}
	return ErrNotFound
}
