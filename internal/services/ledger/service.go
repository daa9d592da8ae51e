// Package ledger implements the balance operations exposed to account
// holders: deposit, withdrawal, transfer, balance inquiry and airtime
// top-up. Every mutation is delegated to a repositories.AccountStore
// primitive, so the service itself holds no mutable state.
package ledger

import (
	"context"
	"errors"
	"time"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/models"
	"orusbank/internal/money"
	"orusbank/internal/repositories"
	"orusbank/internal/services/notification"
	"orusbank/internal/validation"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const notifyTimeout = 3 * time.Second

type Config struct {
	// OpTimeout bounds each operation, lock waits included.
	OpTimeout time.Duration
	// MaxRetries is how many times a conflicting update is retried.
	MaxRetries int
	// EnforceOwnership restricts callers to their own account.
	EnforceOwnership bool
}

func DefaultConfig() Config {
	return Config{
		OpTimeout:        5 * time.Second,
		MaxRetries:       3,
		EnforceOwnership: true,
	}
}

type TransferResult struct {
	SenderBalance   money.Amount
	ReceiverBalance money.Amount
}

type TopUpResult struct {
	Balance money.Amount
	Amount  money.Amount
	Phone   string
}

// Service is the ledger API. Amounts arrive as decimal strings and are
// validated before any account is touched.
type Service interface {
	Deposit(ctx context.Context, caller models.Identity, accountNumber, amount string) (money.Amount, error)
	Withdraw(ctx context.Context, caller models.Identity, accountNumber, amount string) (money.Amount, error)
	Transfer(ctx context.Context, caller models.Identity, sender, receiver, amount string) (*TransferResult, error)
	Balance(ctx context.Context, caller models.Identity, accountNumber string) (money.Amount, error)
	TopUp(ctx context.Context, caller models.Identity, accountNumber, amount, phone string) (*TopUpResult, error)
}

type service struct {
	store    repositories.AccountStore
	notifier notification.TopUpNotifier
	cfg      Config
	log      logrus.FieldLogger
}

func NewService(store repositories.AccountStore, notifier notification.TopUpNotifier, cfg Config, log logrus.FieldLogger) Service {
	if store == nil {
		panic("store cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultConfig().OpTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &service{store: store, notifier: notifier, cfg: cfg, log: log}
}

func (s *service) Deposit(ctx context.Context, caller models.Identity, accountNumber, amount string) (money.Amount, error) {
	value, err := s.prepare(caller, accountNumber, amount)
	if err != nil {
		return 0, err
	}

	var account *models.Account
	err = s.run(ctx, "deposit", func(ctx context.Context) error {
		account, err = s.store.ApplyDelta(ctx, accountNumber, value)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"account_number": accountNumber, "amount": value.String()}).Info("deposit committed")
	return account.Balance, nil
}

func (s *service) Withdraw(ctx context.Context, caller models.Identity, accountNumber, amount string) (money.Amount, error) {
	value, err := s.prepare(caller, accountNumber, amount)
	if err != nil {
		return 0, err
	}

	var account *models.Account
	err = s.run(ctx, "withdraw", func(ctx context.Context) error {
		account, err = s.store.ApplyDelta(ctx, accountNumber, -value)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"account_number": accountNumber, "amount": value.String()}).Info("withdrawal committed")
	return account.Balance, nil
}

func (s *service) Transfer(ctx context.Context, caller models.Identity, sender, receiver, amount string) (*TransferResult, error) {
	v := validation.New()
	v.Required("senderAccount", sender)
	v.Required("receiverAccount", receiver)
	v.Required("amount", amount)
	if err := v.Err(); err != nil {
		return nil, err
	}
	value, err := money.Parse(amount)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, sender); err != nil {
		return nil, err
	}

	var from, to *models.Account
	err = s.run(ctx, "transfer", func(ctx context.Context) error {
		from, to, err = s.store.Transfer(ctx, sender, receiver, value)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"sender":   sender,
		"receiver": receiver,
		"amount":   value.String(),
	}).Info("transfer committed")
	return &TransferResult{SenderBalance: from.Balance, ReceiverBalance: to.Balance}, nil
}

func (s *service) Balance(ctx context.Context, caller models.Identity, accountNumber string) (money.Amount, error) {
	v := validation.New()
	v.Required("accountNumber", accountNumber)
	if err := v.Err(); err != nil {
		return 0, err
	}
	if err := s.authorize(caller, accountNumber); err != nil {
		return 0, err
	}

	var account *models.Account
	err := s.run(ctx, "balance", func(ctx context.Context) error {
		var err error
		account, err = s.store.GetByAccountNumber(ctx, accountNumber)
		return err
	})
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *service) TopUp(ctx context.Context, caller models.Identity, accountNumber, amount, phone string) (*TopUpResult, error) {
	v := validation.New()
	v.Required("accountNumber", accountNumber)
	v.Required("amount", amount)
	v.Required("phone", phone)
	if err := v.Err(); err != nil {
		return nil, err
	}
	// Phone format is checked before the amount and before funds.
	if !validation.IsPhone(phone) {
		return nil, apperrors.ErrInvalidPhone
	}
	value, err := money.Parse(amount)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, accountNumber); err != nil {
		return nil, err
	}

	var account *models.Account
	err = s.run(ctx, "topup", func(ctx context.Context) error {
		account, err = s.store.ApplyDelta(ctx, accountNumber, -value)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyTopUp(ctx, notification.NewTopUpEvent(accountNumber, phone, value, account.Balance))
	return &TopUpResult{Balance: account.Balance, Amount: value, Phone: phone}, nil
}

// notifyTopUp runs after the debit has committed. Its outcome is logged and
// otherwise ignored; the caller's deadline does not cut it short.
func (s *service) notifyTopUp(ctx context.Context, event notification.TopUpEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{
		"event_id":       event.ID,
		"account_number": event.AccountNumber,
		"phone":          event.Phone,
		"amount":         event.Amount.String(),
	})
	if err := s.notifier.NotifyTopUp(ctx, event); err != nil {
		entry.WithError(err).Error("top-up notification failed")
		return
	}
	entry.Info("top-up committed")
}

// prepare validates the single-account operations in order: required
// fields, amount, then ownership.
func (s *service) prepare(caller models.Identity, accountNumber, amount string) (money.Amount, error) {
	v := validation.New()
	v.Required("accountNumber", accountNumber)
	v.Required("amount", amount)
	if err := v.Err(); err != nil {
		return 0, err
	}
	value, err := money.Parse(amount)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(caller, accountNumber); err != nil {
		return 0, err
	}
	return value, nil
}

func (s *service) authorize(caller models.Identity, accountNumber string) error {
	if s.cfg.EnforceOwnership && !caller.Owns(accountNumber) {
		return apperrors.ErrAccountNotOwned
	}
	return nil
}

// run executes op under the operation timeout, retrying conflicts with
// exponential backoff. Every other failure is returned as is.
func (s *service) run(ctx context.Context, name string, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond
	policy.Reset()

	var lastErr error
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, apperrors.ErrConflict) {
			return lastErr
		}
		return backoff.Permanent(lastErr)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.cfg.MaxRetries)), ctx))
	if err == nil {
		return nil
	}

	// Retry reports the context error once the deadline passes; the last
	// store error is more useful to callers.
	if lastErr != nil {
		err = lastErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) {
			err = apperrors.ErrStoreUnavailable.Wrap(err)
		}
	}

	entry := s.log.WithField("op", name).WithField("attempts", attempts).WithError(err)
	var domainErr *apperrors.DomainError
	switch {
	case !errors.As(err, &domainErr):
		entry.Error("ledger operation failed")
	case domainErr.Retryable():
		entry.Warn("ledger operation gave up")
	default:
		entry.Debug("ledger operation rejected")
	}
	return err
}
