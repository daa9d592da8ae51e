package utils

import (
	"errors"

	"orusbank/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the fiber.Ctx Locals key holding the caller's identity.
const IdentityKey = "identity"

// GetIdentity extracts the authenticated caller from the Fiber context.
func GetIdentity(c *fiber.Ctx) (models.Identity, error) {
	v := c.Locals(IdentityKey)
	if v == nil {
		return models.Identity{}, errors.New("identity not found in context")
	}

	identity, ok := v.(models.Identity)
	if !ok {
		return models.Identity{}, errors.New("invalid identity type")
	}
	return identity, nil
}
