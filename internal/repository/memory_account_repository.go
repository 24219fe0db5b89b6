package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/talent-auth/internal/domain"
)

// MemoryAccountRepository keeps accounts in process memory. It backs local
// runs without POSTGRES_DSN and the service tests.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryAccountRepository constructs an empty in-memory store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	email := domain.NormalizeEmail(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return ErrDuplicateEmail
	}

	now := r.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = account.Clone()
	r.byEmail[email] = account.ID
	return nil
}

func (r *MemoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[account.ID]
	if !ok {
		return ErrNotFound
	}
	newEmail := domain.NormalizeEmail(account.Email)
	oldEmail := domain.NormalizeEmail(current.Email)
	if newEmail != oldEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return ErrDuplicateEmail
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = account.ID
	}

	account.UpdatedAt = r.now()
	r.byID[account.ID] = account.Clone()
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return account.Clone(), nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryAccountRepository) GetByResetToken(ctx context.Context, email, token string, notExpiredBefore time.Time) (*domain.Account, error) {
	account, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account.ResetToken == nil || account.ResetTokenExpiry == nil ||
		*account.ResetToken != token || !account.ResetTokenExpiry.After(notExpiredBefore) {
		return nil, ErrNotFound
	}
	return account, nil
}

// SetClock overrides the timestamp source.
func (r *MemoryAccountRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
