package domain

import "time"

// AccountView is the sanitized projection of an Account that may leave the service.
// It never carries the password hash, verification codes or reset tokens.
type AccountView struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	PhoneNumber   *string   `json:"phone_number,omitempty"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// View builds the sanitized projection.
func (a *Account) View() AccountView {
	return AccountView{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		PhoneNumber:   cloneString(a.PhoneNumber),
		Role:          a.Role,
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
