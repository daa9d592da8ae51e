// Package bootstrap builds the service graph from configuration. It is shared
// by the server and the seed tool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orusbank/internal/config"
	"orusbank/internal/repositories"
	"orusbank/internal/repositories/cache"
	"orusbank/internal/services/auth"
	"orusbank/internal/services/ledger"
	"orusbank/internal/services/notification"
	"orusbank/internal/utils"
	"orusbank/pkg/wal"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds the constructed services and the resources to release.
type App struct {
	Store  repositories.AccountStore
	Cache  cache.TokenVersionCache
	Auth   auth.Service
	Ledger ledger.Service

	closers []func() error
}

// New opens the account store, cache and notifier named by cfg and wires
// the services on top of them. Close must be called to release them.
func New(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	app := &App{}

	store, err := app.openStore(ctx, cfg.Database, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	app.Cache = app.openCache(ctx, cfg.Redis, cfg.Auth.TokenTTL, log)
	notifier := app.openNotifier(cfg.Notifier, log)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.Env == "production" {
			app.Close()
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		secret = utils.MustGenerateSecureCode()
		log.Warn("JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	app.Auth = auth.NewService(store, app.Cache, auth.Config{
		JWTSecret:  secret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, log)
	app.Ledger = ledger.NewService(store, notifier, ledger.Config{
		OpTimeout:        cfg.Ledger.OpTimeout,
		MaxRetries:       cfg.Ledger.MaxRetries,
		EnforceOwnership: cfg.Ledger.EnforceOwnership,
	}, log)
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg config.DatabaseConfig, log *logrus.Logger) (repositories.AccountStore, error) {
	if cfg.Driver == "memory" {
		var opts []repositories.MemoryStoreOption
		if cfg.JournalPath != "" {
			journal, err := wal.Open(cfg.JournalPath)
			if err != nil {
				return nil, fmt.Errorf("open journal: %w", err)
			}
			a.closers = append(a.closers, journal.Close)
			opts = append(opts, repositories.WithJournal(journal))
		}
		log.WithField("journal", cfg.JournalPath).Info("using in-memory account store")
		return repositories.NewMemoryAccountStore(opts...)
	}

	db, err := repositories.InitDB(cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return repositories.CloseDB(db) })
	go reportPoolStats(ctx, db, log, time.Minute)
	return repositories.NewAccountRepository(db), nil
}

func (a *App) openCache(ctx context.Context, cfg config.RedisConfig, ttl time.Duration, log *logrus.Logger) cache.TokenVersionCache {
	if !cfg.Enabled {
		return cache.NopCache{}
	}
	client := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	svc := cache.NewCacheService(client, ttl)
	a.closers = append(a.closers, svc.Close)

	if err := svc.HealthCheck(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable at startup; token versions will be read from the store until it recovers")
	} else {
		log.Info("redis connected")
	}
	go reportCacheStats(ctx, svc, log, time.Minute)
	return svc
}

func (a *App) openNotifier(cfg config.NotifierConfig, log *logrus.Logger) notification.TopUpNotifier {
	if cfg.RabbitMQURL == "" {
		return notification.NewLogNotifier(log)
	}
	n, err := notification.NewAMQPNotifier(cfg.RabbitMQURL, cfg.TopUpQueue, log)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unavailable; top-ups will only be logged")
		return notification.NewLogNotifier(log)
	}
	a.closers = append(a.closers, func() error { n.Close(); return nil })
	log.WithField("queue", cfg.TopUpQueue).Info("publishing top-ups to rabbitmq")
	return n
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logrus.WithError(err).Warn("failed to release resource")
		}
	}
	a.closers = nil
}

func reportPoolStats(ctx context.Context, db *gorm.DB, log *logrus.Logger, every time.Duration) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			log.WithFields(logrus.Fields{
				"open":          stats.OpenConnections,
				"idle":          stats.Idle,
				"in_use":        stats.InUse,
				"wait_count":    stats.WaitCount,
				"wait_duration": stats.WaitDuration.String(),
			}).Debug("db pool stats")
		}
	}
}

func reportCacheStats(ctx context.Context, svc *cache.CacheService, log *logrus.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			log.WithFields(logrus.Fields{
				"hits":        stats.Hits,
				"misses":      stats.Misses,
				"timeouts":    stats.Timeouts,
				"total_conns": stats.TotalConns,
				"idle_conns":  stats.IdleConns,
				"stale_conns": stats.StaleConns,
			}).Debug("redis pool stats")
		}
	}
}
