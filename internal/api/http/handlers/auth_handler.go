package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/talent-auth/internal/api/dto"
	"github.com/spec-kit/talent-auth/internal/auth"
	"github.com/spec-kit/talent-auth/internal/service"
	"github.com/spec-kit/talent-auth/internal/verification"
	apperrors "github.com/spec-kit/talent-auth/pkg/util/errorutil"
)

const resetRequestedMessage = "If your email is registered, you will receive a password reset code"

// AuthHandler exposes the sign-up, verification, sign-in and reset endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

type validatable interface {
	Validate() dto.FieldErrors
}

func parse(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return apperrors.NewValidationError("invalid payload", errs)
	}
	return nil
}

// SignUp handles POST /api/auth/sign-up.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	res, err := h.auth.SignUp(c.UserContext(), service.SignUpInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": challengeResponse(res,
			"Account created. Please verify your email.",
			"Account created, but the verification email could not be sent. Please request a new code."),
	})
}

// VerifyEmail handles POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.CodeRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	account, err := h.auth.VerifyEmail(c.UserContext(), req.AccountID, req.Code)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.AccountResponse{Account: account, Message: "Email verified successfully"}})
}

// ResendVerificationEmail handles POST /api/auth/resend-verification-email.
func (h *AuthHandler) ResendVerificationEmail(c *fiber.Ctx) error {
	var req dto.AccountRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	res, err := h.auth.ResendEmailChallenge(c.UserContext(), req.AccountID)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{
		"data": challengeResponse(res,
			"Verification code resent to your email",
			"A new code was generated but could not be sent. Please try again."),
	})
}

// SendPhoneCode handles POST /api/auth/send-phone-code.
func (h *AuthHandler) SendPhoneCode(c *fiber.Ctx) error {
	var req dto.AccountRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	res, err := h.auth.RequestPhoneChallenge(c.UserContext(), req.AccountID)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{
		"data": challengeResponse(res,
			"Verification code sent to your phone number",
			"A new code was generated but the SMS could not be sent. Please try again."),
	})
}

// VerifyPhone handles POST /api/auth/verify-phone.
func (h *AuthHandler) VerifyPhone(c *fiber.Ctx) error {
	var req dto.CodeRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	account, err := h.auth.VerifyPhone(c.UserContext(), req.AccountID, req.Code)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.AccountResponse{Account: account, Message: "Phone number verified successfully"}})
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	res, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{
		"data": dto.SignInResponse{
			Account: res.Account,
			Auth:    dto.AuthResponse{Token: res.Session.Token, ExpiresAt: res.Session.ExpiresAt},
			Message: "Signed in successfully",
		},
	})
}

// RequestPasswordReset handles POST /api/auth/request-password-reset. The
// response is identical whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: resetRequestedMessage}})
}

// VerifyResetToken handles POST /api/auth/verify-reset-token.
func (h *AuthHandler) VerifyResetToken(c *fiber.Ctx) error {
	var req dto.ResetTokenRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	if err := h.auth.VerifyResetToken(c.UserContext(), req.Email, req.ResetToken); err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "Reset token is valid"}})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Email, req.ResetToken, req.NewPassword); err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "Password reset successfully"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	account, err := h.auth.CurrentAccount(c.UserContext(), principal.Account.ID)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": dto.AccountResponse{Account: account}})
}

func challengeResponse(res *service.ChallengeResult, sent, degraded string) dto.ChallengeResponse {
	message := sent
	if !res.Delivered {
		message = degraded
	}
	return dto.ChallengeResponse{
		Account:      res.Account,
		Notification: dto.NotificationStatus{Delivered: res.Delivered},
		Message:      message,
	}
}

// mapAuthError translates service and state machine errors into DomainErrors.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return apperrors.NewNotFound("account")
	case errors.Is(err, service.ErrDuplicateEmail):
		return apperrors.NewDuplicateEmail()
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewInvalidCredentials()
	case errors.Is(err, service.ErrTooManyAttempts):
		return apperrors.NewTooManyAttempts()
	case errors.Is(err, service.ErrWeakPassword):
		return apperrors.NewValidationError("invalid payload", map[string]any{"password": err.Error()})
	case errors.Is(err, verification.ErrInvalidCode):
		return apperrors.NewInvalidCode()
	case errors.Is(err, verification.ErrInvalidOrExpiredToken):
		return apperrors.NewInvalidOrExpiredToken()
	case errors.Is(err, verification.ErrPreconditionFailed):
		msg := strings.TrimPrefix(err.Error(), verification.ErrPreconditionFailed.Error()+": ")
		return apperrors.NewPreconditionFailed(msg)
	case errors.Is(err, verification.ErrRoleNotAllowed):
		return apperrors.NewForbidden("cannot create admin accounts through this route")
	case errors.Is(err, verification.ErrInvalidRole):
		return apperrors.NewValidationError("invalid payload", map[string]any{"role": "must be contractor or client"})
	}
	return apperrors.MapError(err)
}
