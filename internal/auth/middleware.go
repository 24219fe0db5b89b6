package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/talent-auth/internal/domain"
	apperrors "github.com/spec-kit/talent-auth/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AccountLoader resolves the account behind a token.
type AccountLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// ErrAccountNotFound must be returned (or wrapped) by loaders for unknown ids.
var ErrAccountNotFound = errors.New("account not found")

// Principal represents the authenticated caller.
type Principal struct {
	Account *domain.Account
	Role    domain.Role
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts AccountLoader
	notFound error
}

// NewAuthMiddleware constructs middleware. notFound is the loader's sentinel
// for missing accounts, translated to 401 instead of 500.
func NewAuthMiddleware(tokens *TokenManager, accounts AccountLoader, notFound error) *AuthMiddleware {
	if notFound == nil {
		notFound = ErrAccountNotFound
	}
	return &AuthMiddleware{tokens: tokens, accounts: accounts, notFound: notFound}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	account, err := m.accounts.GetByID(c.UserContext(), claims.AccountID)
	if err != nil {
		if errors.Is(err, m.notFound) {
			return apperrors.NewUnauthorized("account no longer exists")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Account: account, Role: account.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated account.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
