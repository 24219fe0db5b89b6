package dto

import (
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/talent-auth/internal/domain"
)

// FieldErrors maps request fields to validation messages.
type FieldErrors map[string]any

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
}

// Validate checks required fields and formats.
func (r SignUpRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.FirstName) == "" {
		errs["first_name"] = "required"
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs["last_name"] = "required"
	}
	checkEmail(errs, r.Email)
	if r.PhoneNumber != nil && strings.TrimSpace(*r.PhoneNumber) == "" {
		errs["phone_number"] = "must not be blank"
	}
	if r.Password == "" {
		errs["password"] = "required"
	}
	return errs
}

// CodeRequest submits a verification code for an account.
type CodeRequest struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
}

// Validate checks required fields.
func (r CodeRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.AccountID) == "" {
		errs["account_id"] = "required"
	}
	if r.Code == "" {
		errs["code"] = "required"
	}
	return errs
}

// AccountRequest addresses an account by id.
type AccountRequest struct {
	AccountID string `json:"account_id"`
}

// Validate checks required fields.
func (r AccountRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.AccountID) == "" {
		errs["account_id"] = "required"
	}
	return errs
}

// SignInRequest payload for login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (r SignInRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "required"
	}
	if r.Password == "" {
		errs["password"] = "required"
	}
	return errs
}

// PasswordResetRequest starts a reset for an email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// Validate checks required fields.
func (r PasswordResetRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	checkEmail(errs, r.Email)
	return errs
}

// ResetTokenRequest checks a reset token.
type ResetTokenRequest struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// Validate checks required fields.
func (r ResetTokenRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	checkEmail(errs, r.Email)
	if r.ResetToken == "" {
		errs["reset_token"] = "required"
	}
	return errs
}

// ResetPasswordRequest consumes a reset token.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// Validate checks required fields.
func (r ResetPasswordRequest) Validate() FieldErrors {
	errs := ResetTokenRequest{Email: r.Email, ResetToken: r.ResetToken}.Validate()
	if r.NewPassword == "" {
		errs["new_password"] = "required"
	}
	return errs
}

// NotificationStatus reports whether a code reached its destination.
type NotificationStatus struct {
	Delivered bool `json:"delivered"`
}

// ChallengeResponse is returned by operations that send a code.
type ChallengeResponse struct {
	Account      domain.AccountView `json:"account"`
	Notification NotificationStatus `json:"notification"`
	Message      string             `json:"message"`
}

// AccountResponse wraps a sanitized account with a status message.
type AccountResponse struct {
	Account domain.AccountView `json:"account"`
	Message string             `json:"message,omitempty"`
}

// AuthResponse standard token payload.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignInResponse returns the account and its session.
type SignInResponse struct {
	Account domain.AccountView `json:"account"`
	Auth    AuthResponse       `json:"auth"`
	Message string             `json:"message"`
}

// MessageResponse carries only a status message.
type MessageResponse struct {
	Message string `json:"message"`
}

func checkEmail(errs FieldErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "required"
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "invalid format"
	}
}
