package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/talent-auth/internal/domain"
	apperrors "github.com/spec-kit/talent-auth/pkg/util/errorutil"
)

// RequireEmailVerified blocks principals whose email is not verified.
func RequireEmailVerified() fiber.Handler {
	return requireVerified(domain.ChannelEmail, "please verify your email before accessing this resource")
}

// RequirePhoneVerified blocks principals whose phone is not verified.
func RequirePhoneVerified() fiber.Handler {
	return requireVerified(domain.ChannelPhone, "please verify your phone number before accessing this resource")
}

func requireVerified(ch domain.Channel, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Account.Verified(ch) {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
