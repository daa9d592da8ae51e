// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file found")
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv parses values such as "5s" or "1h".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// JournalPath is only used by the memory driver; empty means volatile.
	JournalPath string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type LedgerConfig struct {
	OpTimeout        time.Duration
	MaxRetries       int
	EnforceOwnership bool
}

type NotifierConfig struct {
	RabbitMQURL string
	TopUpQueue  string
}

// Config is the full set of service settings.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	CORSOrigins string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	Notifier NotifierConfig
}

// Load gathers every setting from the environment.
func Load() Config {
	return Config{
		Port:        GetEnv("PORT", "3000"),
		Env:         GetEnv("ENV", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		CORSOrigins: GetEnv("CORS_ALLOW_ORIGINS", "*"),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(GetEnv("DB_DRIVER", "postgres")),
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "orusbank"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			JournalPath:     GetEnv("LEDGER_JOURNAL_PATH", ""),
		},
		Redis: RedisConfig{
			Enabled:  GetBoolEnv("REDIS_ENABLED", false),
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:  GetEnv("JWT_SECRET", ""),
			TokenTTL:   GetDurationEnv("JWT_TTL", time.Hour),
			BcryptCost: GetIntEnv("BCRYPT_COST", 10),
		},
		Ledger: LedgerConfig{
			OpTimeout:        GetDurationEnv("LEDGER_OP_TIMEOUT", 5*time.Second),
			MaxRetries:       GetIntEnv("LEDGER_MAX_RETRIES", 3),
			EnforceOwnership: GetBoolEnv("LEDGER_ENFORCE_OWNERSHIP", true),
		},
		Notifier: NotifierConfig{
			RabbitMQURL: GetEnv("RABBITMQ_URL", ""),
			TopUpQueue:  GetEnv("TOPUP_QUEUE", "ledger.topups"),
		},
	}
}
