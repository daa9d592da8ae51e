package handlers

import (
	"context"
	"time"

	"orusbank/internal/repositories"
	"orusbank/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store repositories.AccountStore
	cache cache.TokenVersionCache
}

func NewHealthHandler(store repositories.AccountStore, tokenCache cache.TokenVersionCache) *HealthHandler {
	return &HealthHandler{store: store, cache: tokenCache}
}

func Welcome(c *fiber.Ctx) error {
	return c.SendString("Welcome to the OrusBank API!")
}

// HealthCheck reports 503 when the account store is unreachable. The cache
// is optional, so its state is reported without affecting the status.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	storeState := "connected"
	if err := h.store.Ping(ctx); err != nil {
		status, code, storeState = "degraded", fiber.StatusServiceUnavailable, "unreachable"
	}
	cacheState := "connected"
	if _, disabled := h.cache.(cache.NopCache); disabled {
		cacheState = "disabled"
	} else if err := h.cache.HealthCheck(ctx); err != nil {
		cacheState = "unreachable"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"store":  storeState,
		"cache":  cacheState,
	})
}
