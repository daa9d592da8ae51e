// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"strings"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/services/auth"
	"orusbank/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware resolves the bearer token to an identity and stores it in
// the request context for the ledger handlers.
type AuthMiddleware struct {
	authService auth.Service
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, apperrors.ErrMissingToken)
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return utils.Unauthorized(c, apperrors.ErrInvalidToken.WithMessage("invalid authorization format"))
	}

	identity, err := m.authService.Authenticate(c.UserContext(), strings.TrimSpace(token))
	if err != nil {
		return utils.Error(c, err)
	}

	c.Locals(utils.IdentityKey, identity)
	return c.Next()
}
