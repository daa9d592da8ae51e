// Command seed creates demo accounts through the same services the API
// uses. SEED_USERS is a comma-separated list of username:email:password,
// and SEED_OPENING_BALANCE, when set, is deposited into each new account.
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"orusbank/internal/bootstrap"
	"orusbank/internal/config"
	apperrors "orusbank/internal/errors"
	"orusbank/internal/logging"
	"orusbank/internal/models"

	"github.com/sirupsen/logrus"
)

type seedUser struct {
	Username string
	Email    string
	Password string
}

func parseSeedUsers(raw string) ([]seedUser, error) {
	var users []seedUser
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, errors.New("SEED_USERS entries must be username:email:password")
		}
		users = append(users, seedUser{Username: parts[0], Email: parts[1], Password: parts[2]})
	}
	return users, nil
}

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.SetupLogging(cfg.LogLevel)

	users, err := parseSeedUsers(os.Getenv("SEED_USERS"))
	if err != nil {
		log.WithError(err).Fatal("invalid SEED_USERS")
	}
	if len(users) == 0 {
		log.Fatal("SEED_USERS must list at least one username:email:password")
	}
	opening := os.Getenv("SEED_OPENING_BALANCE")

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize services")
	}
	defer app.Close()

	for _, u := range users {
		entry := log.WithField("email", u.Email)
		account, err := app.Auth.Signup(ctx, u.Username, u.Email, u.Password)
		if errors.Is(err, apperrors.ErrDuplicateOwner) {
			entry.Info("account already exists")
			continue
		}
		if err != nil {
			entry.WithError(err).Error("failed to create account")
			continue
		}

		if opening != "" {
			caller := models.Identity{AccountID: account.ID, AccountNumber: account.AccountNumber, Email: account.Email}
			if _, err := app.Ledger.Deposit(ctx, caller, account.AccountNumber, opening); err != nil {
				entry.WithError(err).Error("failed to deposit opening balance")
			}
		}
		entry.WithFields(logrus.Fields{"account_number": account.AccountNumber}).Info("account created")
	}
}
