// Package verification holds the account verification and credential reset
// state machine. It only mutates in-memory accounts; persistence and delivery
// are the caller's responsibility.
package verification

import (
	"strings"
	"time"

	"github.com/spec-kit/talent-auth/internal/domain"
)

// DefaultResetTTL is the validity of a password reset token.
const DefaultResetTTL = time.Hour

// Machine applies verification transitions to accounts.
type Machine struct {
	codes    CodeGenerator
	now      func() time.Time
	resetTTL time.Duration
	codeTTL  time.Duration
}

// Option customizes a Machine.
type Option func(*Machine)

// WithCodeGenerator overrides the random code source.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(m *Machine) { m.codes = g }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithResetTTL sets the reset token validity.
func WithResetTTL(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.resetTTL = d
		}
	}
}

// WithCodeTTL sets the verification code validity. Zero disables expiry.
func WithCodeTTL(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.codeTTL = d
		}
	}
}

// NewMachine builds a Machine with crypto-random codes and wall-clock time.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		codes:    RandomCodeGenerator{},
		now:      time.Now,
		resetTTL: DefaultResetTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the machine's current time.
func (m *Machine) Now() time.Time {
	return m.now()
}

// Registration carries the already-validated sign-up input.
type Registration struct {
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  *string
	PasswordHash string
	Role         string
}

// ResolveRole maps a requested role to a role that may be self-assigned.
// Empty means contractor; admin is never allowed.
func ResolveRole(requested string) (domain.Role, error) {
	role := domain.Role(strings.ToLower(strings.TrimSpace(requested)))
	switch {
	case role == "":
		return domain.RoleContractor, nil
	case role == domain.RoleAdmin:
		return "", ErrRoleNotAllowed
	case !role.Valid():
		return "", ErrInvalidRole
	}
	return role, nil
}

// NewAccount builds an unverified account with an outstanding email challenge.
func (m *Machine) NewAccount(reg Registration) (*domain.Account, error) {
	role, err := ResolveRole(reg.Role)
	if err != nil {
		return nil, err
	}

	now := m.now()
	acc := &domain.Account{
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Email:        domain.NormalizeEmail(reg.Email),
		PasswordHash: reg.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if reg.PhoneNumber != nil {
		if phone := strings.TrimSpace(*reg.PhoneNumber); phone != "" {
			acc.PhoneNumber = &phone
		}
	}

	if _, err := m.IssueChallenge(domain.ChannelEmail, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// IssueChallenge stores a fresh code for the channel, replacing any outstanding one.
func (m *Machine) IssueChallenge(ch domain.Channel, acc *domain.Account) (string, error) {
	if acc.Verified(ch) {
		return "", preconditionf("%s already verified", ch)
	}
	if ch == domain.ChannelPhone {
		if !acc.EmailVerified {
			return "", preconditionf("email must be verified first")
		}
		if !acc.HasPhone() {
			return "", preconditionf("no phone number on file")
		}
	}

	code, err := m.codes.Generate()
	if err != nil {
		return "", err
	}

	now := m.now()
	var expiry *time.Time
	if m.codeTTL > 0 {
		exp := now.Add(m.codeTTL)
		expiry = &exp
	}

	switch ch {
	case domain.ChannelEmail:
		acc.EmailVerificationCode = &code
		acc.EmailCodeExpiresAt = expiry
	case domain.ChannelPhone:
		acc.PhoneVerificationCode = &code
		acc.PhoneCodeExpiresAt = expiry
	default:
		return "", preconditionf("unknown channel %q", ch)
	}
	acc.UpdatedAt = now
	return code, nil
}

// ConsumeChallenge marks the channel verified when supplied equals the stored code.
// The account is left untouched on failure.
func (m *Machine) ConsumeChallenge(ch domain.Channel, acc *domain.Account, supplied string) error {
	var stored *string
	var expiry *time.Time
	switch ch {
	case domain.ChannelEmail:
		stored, expiry = acc.EmailVerificationCode, acc.EmailCodeExpiresAt
	case domain.ChannelPhone:
		if !acc.EmailVerified {
			return preconditionf("email must be verified first")
		}
		stored, expiry = acc.PhoneVerificationCode, acc.PhoneCodeExpiresAt
	default:
		return preconditionf("unknown channel %q", ch)
	}

	now := m.now()
	if stored == nil || *stored != supplied {
		return ErrInvalidCode
	}
	if expiry != nil && !now.Before(*expiry) {
		return ErrInvalidCode
	}

	switch ch {
	case domain.ChannelEmail:
		acc.EmailVerified = true
		acc.EmailVerificationCode = nil
		acc.EmailCodeExpiresAt = nil
	case domain.ChannelPhone:
		acc.PhoneVerified = true
		acc.PhoneVerificationCode = nil
		acc.PhoneCodeExpiresAt = nil
	}
	acc.UpdatedAt = now
	return nil
}

// IssueResetToken replaces any previous reset token with a fresh one.
func (m *Machine) IssueResetToken(acc *domain.Account) (string, error) {
	token, err := m.codes.Generate()
	if err != nil {
		return "", err
	}
	now := m.now()
	expiry := now.Add(m.resetTTL)
	acc.ResetToken = &token
	acc.ResetTokenExpiry = &expiry
	acc.UpdatedAt = now
	return token, nil
}

// CheckResetToken validates a reset token without consuming it.
func (m *Machine) CheckResetToken(acc *domain.Account, supplied string) error {
	if acc == nil || acc.ResetToken == nil || acc.ResetTokenExpiry == nil {
		return ErrInvalidOrExpiredToken
	}
	if *acc.ResetToken != supplied || !acc.ResetTokenExpiry.After(m.now()) {
		return ErrInvalidOrExpiredToken
	}
	return nil
}

// ConsumeResetToken swaps the password hash and clears the token.
func (m *Machine) ConsumeResetToken(acc *domain.Account, supplied, newHash string) error {
	if err := m.CheckResetToken(acc, supplied); err != nil {
		return err
	}
	acc.PasswordHash = newHash
	acc.ResetToken = nil
	acc.ResetTokenExpiry = nil
	acc.UpdatedAt = m.now()
	return nil
}
