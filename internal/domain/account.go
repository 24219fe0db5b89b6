package domain

import (
	"strings"
	"time"
)

// Role represents the kind of account holder.
type Role string

const (
	RoleContractor Role = "contractor"
	RoleClient     Role = "client"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleContractor, RoleClient, RoleAdmin:
		return true
	}
	return false
}

// Channel identifies an independent verification track on an account.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Account is the persisted credential record of a registered identity.
type Account struct {
	ID                    string
	FirstName             string
	LastName              string
	Email                 string
	PhoneNumber           *string
	PasswordHash          string
	Role                  Role
	EmailVerified         bool
	PhoneVerified         bool
	EmailVerificationCode *string
	EmailCodeExpiresAt    *time.Time
	PhoneVerificationCode *string
	PhoneCodeExpiresAt    *time.Time
	ResetToken            *string
	ResetTokenExpiry      *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Verified reports the verified flag of the given channel.
func (a *Account) Verified(ch Channel) bool {
	if ch == ChannelPhone {
		return a.PhoneVerified
	}
	return a.EmailVerified
}

// HasPhone reports whether a phone number is on file.
func (a *Account) HasPhone() bool {
	return a.PhoneNumber != nil && strings.TrimSpace(*a.PhoneNumber) != ""
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.PhoneNumber = cloneString(a.PhoneNumber)
	cp.EmailVerificationCode = cloneString(a.EmailVerificationCode)
	cp.PhoneVerificationCode = cloneString(a.PhoneVerificationCode)
	cp.ResetToken = cloneString(a.ResetToken)
	cp.EmailCodeExpiresAt = cloneTime(a.EmailCodeExpiresAt)
	cp.PhoneCodeExpiresAt = cloneTime(a.PhoneCodeExpiresAt)
	cp.ResetTokenExpiry = cloneTime(a.ResetTokenExpiry)
	return &cp
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
