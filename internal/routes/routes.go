// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"orusbank/internal/handlers"
	"orusbank/internal/middleware"
	"orusbank/internal/repositories"
	"orusbank/internal/repositories/cache"
	"orusbank/internal/services/auth"
	"orusbank/internal/services/ledger"
	"orusbank/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth   auth.Service
	Ledger ledger.Service
	Store  repositories.AccountStore
	Cache  cache.TokenVersionCache

	// CredentialRateLimit caps signup and login attempts per client IP per
	// minute; zero disables the limit.
	CredentialRateLimit int
}

// SetupRoutes registers every public and authenticated route.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	if deps.Cache == nil {
		deps.Cache = cache.NopCache{}
	}

	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Cache)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledger)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)

	app.Get("/", handlers.Welcome)
	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api")

	var rateLimit fiber.Handler
	if deps.CredentialRateLimit > 0 {
		rateLimit = limiter.New(limiter.Config{
			Max:        deps.CredentialRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return utils.Respond(c, fiber.StatusTooManyRequests, fiber.Map{
					"error": "too many attempts, try again later",
					"code":  "RATE_LIMITED",
				})
			},
		})
	}
	public := func(path string, h fiber.Handler) {
		if rateLimit != nil {
			api.Post(path, rateLimit, h)
			return
		}
		api.Post(path, h)
	}
	public("/signup", authHandler.Signup)
	public("/login", authHandler.Login)

	protected := func(path string, h fiber.Handler) {
		api.Post(path, authMiddleware.Handler, h)
	}
	protected("/logout", authHandler.Logout)
	protected("/deposit", ledgerHandler.Deposit)
	protected("/withdrawal", ledgerHandler.Withdraw)
	protected("/transfer", ledgerHandler.Transfer)
	protected("/balance", ledgerHandler.Balance)
	protected("/topup", ledgerHandler.TopUp)
}
