package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/models"
	"orusbank/internal/repositories"
	"orusbank/internal/repositories/cache"
	"orusbank/internal/utils"
	"orusbank/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type Service interface {
	Signup(ctx context.Context, username, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	// Authenticate turns a bearer token into the caller's identity.
	Authenticate(ctx context.Context, token string) (models.Identity, error)
	// Logout revokes every token issued to the caller so far.
	Logout(ctx context.Context, caller models.Identity) error
}

type service struct {
	store repositories.AccountStore
	cache cache.TokenVersionCache
	cfg   Config
	log   logrus.FieldLogger
}

func NewService(store repositories.AccountStore, tokenCache cache.TokenVersionCache, cfg Config, log logrus.FieldLogger) Service {
	if store == nil {
		panic("store cannot be nil")
	}
	if cfg.JWTSecret == "" {
		panic("jwt secret cannot be empty")
	}
	if tokenCache == nil {
		tokenCache = cache.NopCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &service{store: store, cache: tokenCache, cfg: cfg, log: log}
}

func (s *service) Signup(ctx context.Context, username, email, password string) (*models.Account, error) {
	// Owners are unique regardless of case in every store.
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	v := validation.New()
	v.Required("username", username)
	v.Required("email", email)
	v.Required("password", password)
	v.MaxLength("username", username, 64)
	v.Email("email", email)
	// bcrypt ignores input past 72 bytes.
	v.MaxLength("password", password, 72)
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"account_id": account.ID, "account_number": account.AccountNumber}).Info("account created")
	return account, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	v := validation.New()
	v.Required("email", email)
	v.Required("password", password)
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	account, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.log.Debug("login failed: unknown email")
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("account_id", account.ID).Debug("login failed: incorrect password")
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, s.cfg.TokenTTL, &models.UserClaims{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Email:         account.Email,
		TokenVersion:  account.TokenVersion,
	})
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return models.Identity{}, apperrors.ErrMissingToken
	}

	claims, err := utils.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, apperrors.ErrSessionExpired.Wrap(err)
		}
		return models.Identity{}, apperrors.ErrInvalidToken.Wrap(err)
	}

	current, err := s.tokenVersion(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.Identity{}, apperrors.ErrInvalidToken
		}
		return models.Identity{}, err
	}
	if claims.TokenVersion != current {
		return models.Identity{}, apperrors.ErrSessionExpired
	}
	return claims.Identity(), nil
}

// tokenVersion reads through the cache. Cache failures fall back to the
// store and are only logged. Fills only ever raise the cached version, so a
// fill racing a logout cannot restore the revoked one.
func (s *service) tokenVersion(ctx context.Context, accountID uint) (int, error) {
	version, found, err := s.cache.GetTokenVersion(ctx, accountID)
	if err != nil {
		s.log.WithError(err).Warn("token version cache read failed")
	}
	if found {
		return version, nil
	}

	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.RaiseTokenVersion(ctx, accountID, account.TokenVersion); err != nil {
		s.log.WithError(err).Warn("token version cache write failed")
	}
	return account.TokenVersion, nil
}

func (s *service) Logout(ctx context.Context, caller models.Identity) error {
	version, err := s.store.IncrementTokenVersion(ctx, caller.AccountID)
	if err != nil {
		return err
	}
	err = s.cache.RaiseTokenVersion(ctx, caller.AccountID, version)
	if err == nil {
		return nil
	}
	s.log.WithError(err).Warn("token version cache write failed")
	if invErr := s.cache.InvalidateTokenVersion(ctx, caller.AccountID); invErr != nil {
		s.log.WithError(invErr).Error("token version cache invalidation failed")
		return fmt.Errorf("revoke cached token version: %w", errors.Join(err, invErr))
	}
	return nil
}
