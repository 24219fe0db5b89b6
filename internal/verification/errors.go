package verification

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCode is returned when a challenge code does not match, is absent or has expired.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrInvalidOrExpiredToken is returned for any reset token mismatch or expiry.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrPreconditionFailed is returned when channel ordering or state forbids the transition.
	ErrPreconditionFailed = errors.New("verification precondition failed")
	// ErrRoleNotAllowed is returned when sign-up requests a privileged role.
	ErrRoleNotAllowed = errors.New("role cannot be assigned at sign-up")
	// ErrInvalidRole is returned for unknown roles.
	ErrInvalidRole = errors.New("unknown role")
)

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPreconditionFailed}, args...)...)
}
