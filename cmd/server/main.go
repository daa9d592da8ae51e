// Package main is the entry point for the ledger API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orusbank/internal/bootstrap"
	"orusbank/internal/config"
	"orusbank/internal/logging"
	"orusbank/internal/middleware"
	"orusbank/internal/routes"
	"orusbank/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.SetupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize services")
	}
	defer app.Close()

	server := fiber.New(fiber.Config{
		AppName:      "orusbank",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return utils.Respond(c, fe.Code, fiber.Map{"error": fe.Message, "code": "HTTP_ERROR"})
			}
			return utils.Error(c, err)
		},
	})

	server.Use(recover.New())
	server.Use(middleware.RequestLogger(log))
	server.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))

	routes.SetupRoutes(server, routes.Dependencies{
		Auth:                app.Auth,
		Ledger:              app.Ledger,
		Store:               app.Store,
		Cache:               app.Cache,
		CredentialRateLimit: config.GetIntEnv("AUTH_RATE_LIMIT", 5),
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{"port": cfg.Port, "driver": cfg.Database.Driver}).Info("orusbank starting")
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
