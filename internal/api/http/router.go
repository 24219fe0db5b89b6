package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/talent-auth/internal/api/http/handlers"
	"github.com/spec-kit/talent-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/sign-up", cfg.Auth.SignUp)
	authGroup.Post("/verify-email", cfg.Auth.VerifyEmail)
	authGroup.Post("/resend-verification-email", cfg.Auth.ResendVerificationEmail)
	authGroup.Post("/send-phone-code", cfg.Auth.SendPhoneCode)
	authGroup.Post("/verify-phone", cfg.Auth.VerifyPhone)
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Post("/request-password-reset", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/verify-reset-token", cfg.Auth.VerifyResetToken)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	protected := authGroup.Group("/me", cfg.AuthMiddleware.Handle)
	protected.Get("", cfg.Auth.Me)
	protected.Get("/verified", auth.RequireEmailVerified(), auth.RequirePhoneVerified(), cfg.Auth.Me)
}
