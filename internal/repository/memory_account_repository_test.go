package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/talent-auth/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestMemoryAccountRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	acc := &domain.Account{Email: "a@x.com", PasswordHash: "h", Role: domain.RoleClient}
	require.NoError(t, repo.Create(ctx, acc))
	require.NotEmpty(t, acc.ID)

	byID, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "  A@X.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAccountRepository_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Account{Email: "a@x.com"}))
	err := repo.Create(ctx, &domain.Account{Email: "A@X.COM"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryAccountRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	acc := &domain.Account{Email: "a@x.com", EmailVerificationCode: strPtr("123456")}
	require.NoError(t, repo.Create(ctx, acc))

	loaded, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	*loaded.EmailVerificationCode = "000000"
	loaded.EmailVerified = true

	again, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456", *again.EmailVerificationCode)
	assert.False(t, again.EmailVerified)
}

func TestMemoryAccountRepository_Update(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	acc := &domain.Account{Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, acc))

	acc.EmailVerified = true
	require.NoError(t, repo.Update(ctx, acc))

	loaded, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, loaded.EmailVerified)

	err = repo.Update(ctx, &domain.Account{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAccountRepository_GetByResetToken(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)

	acc := &domain.Account{Email: "a@x.com", ResetToken: strPtr("654321"), ResetTokenExpiry: &expiry}
	require.NoError(t, repo.Create(ctx, acc))

	found, err := repo.GetByResetToken(ctx, "a@x.com", "654321", now)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, found.ID)

	_, err = repo.GetByResetToken(ctx, "a@x.com", "111111", now)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByResetToken(ctx, "a@x.com", "654321", expiry)
	assert.ErrorIs(t, err, ErrNotFound)
}
