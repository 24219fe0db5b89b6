package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/talent-auth/internal/config"
	"github.com/spec-kit/talent-auth/internal/domain"
	"github.com/spec-kit/talent-auth/internal/persistence"
)

// Runs against a real database only when POSTGRES_TEST_DSN is set.
func newPostgresRepo(t *testing.T) AccountRepository {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	logger := zap.NewNop()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, logger)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pg.PoolHandle(), logger))

	return NewAccountRepository(pg.PoolHandle())
}

func uniqueEmail() string {
	return "it-" + uuid.NewString() + "@Example.com"
}

func TestAccountRepository_Postgres_Lifecycle(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	code := "123456"
	acc := &domain.Account{
		FirstName:             "Ada",
		LastName:              "Lovelace",
		Email:                 domain.NormalizeEmail(uniqueEmail()),
		PasswordHash:          "hash",
		Role:                  domain.RoleContractor,
		EmailVerificationCode: &code,
	}
	require.NoError(t, repo.Create(ctx, acc))
	require.NotEmpty(t, acc.ID)

	err := repo.Create(ctx, &domain.Account{Email: acc.Email, PasswordHash: "x", Role: domain.RoleClient})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	loaded, err := repo.GetByEmail(ctx, acc.Email)
	require.NoError(t, err)
	require.NotNil(t, loaded.EmailVerificationCode)
	assert.Equal(t, code, *loaded.EmailVerificationCode)

	token := "654321"
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	loaded.EmailVerified = true
	loaded.EmailVerificationCode = nil
	loaded.ResetToken = &token
	loaded.ResetTokenExpiry = &expiry
	require.NoError(t, repo.Update(ctx, loaded))

	found, err := repo.GetByResetToken(ctx, acc.Email, token, time.Now())
	require.NoError(t, err)
	assert.True(t, found.EmailVerified)
	assert.Nil(t, found.EmailVerificationCode)

	_, err = repo.GetByResetToken(ctx, acc.Email, token, expiry.Add(time.Second))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}
