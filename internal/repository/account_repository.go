package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/talent-auth/internal/domain"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// AccountRepository defines persistence access for accounts. Update replaces
// the full record; concurrent writers to one account are last-write-wins.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByResetToken(ctx context.Context, email, token string, notExpiredBefore time.Time) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `
        id, first_name, last_name, email, phone_number, password_hash, role,
        email_verified, phone_verified,
        email_verification_code, email_code_expires_at,
        phone_verification_code, phone_code_expires_at,
        reset_token, reset_token_expiry, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (
            first_name, last_name, email, phone_number, password_hash, role,
            email_verified, phone_verified,
            email_verification_code, email_code_expires_at,
            phone_verification_code, phone_code_expires_at,
            reset_token, reset_token_expiry)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PhoneNumber,
		account.PasswordHash,
		account.Role,
		account.EmailVerified,
		account.PhoneVerified,
		account.EmailVerificationCode,
		account.EmailCodeExpiresAt,
		account.PhoneVerificationCode,
		account.PhoneCodeExpiresAt,
		account.ResetToken,
		account.ResetTokenExpiry,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return mapError(err)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET
            first_name=$1, last_name=$2, email=$3, phone_number=$4, password_hash=$5, role=$6,
            email_verified=$7, phone_verified=$8,
            email_verification_code=$9, email_code_expires_at=$10,
            phone_verification_code=$11, phone_code_expires_at=$12,
            reset_token=$13, reset_token_expiry=$14, updated_at=NOW()
        WHERE id=$15
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PhoneNumber,
		account.PasswordHash,
		account.Role,
		account.EmailVerified,
		account.PhoneVerified,
		account.EmailVerificationCode,
		account.EmailCodeExpiresAt,
		account.PhoneVerificationCode,
		account.PhoneCodeExpiresAt,
		account.ResetToken,
		account.ResetTokenExpiry,
		account.ID,
	).Scan(&account.UpdatedAt)
	return mapError(err)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + `
        FROM accounts WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + `
        FROM accounts WHERE lower(email)=lower($1)`
	return r.scanOne(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

func (r *accountRepository) GetByResetToken(ctx context.Context, email, token string, notExpiredBefore time.Time) (*domain.Account, error) {
	query := `SELECT` + accountColumns + `
        FROM accounts
        WHERE lower(email)=lower($1) AND reset_token=$2 AND reset_token_expiry > $3`
	return r.scanOne(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email), token, notExpiredBefore))
}

func (r *accountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.PhoneNumber,
		&account.PasswordHash,
		&account.Role,
		&account.EmailVerified,
		&account.PhoneVerified,
		&account.EmailVerificationCode,
		&account.EmailCodeExpiresAt,
		&account.PhoneVerificationCode,
		&account.PhoneCodeExpiresAt,
		&account.ResetToken,
		&account.ResetTokenExpiry,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicateEmail
		case invalidTextRepresentation:
			// malformed uuid in a lookup
			return ErrNotFound
		}
	}
	return err
}
