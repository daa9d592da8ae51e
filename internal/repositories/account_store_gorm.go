package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/models"
	"orusbank/internal/money"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Database error codes that mean "try again", per driver.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"

	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

type accountRepository struct {
	db   *gorm.DB
	draw AccountNumberGenerator
}

// NewAccountRepository returns an AccountStore backed by a SQL database.
// The gorm.DB should be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
func NewAccountRepository(db *gorm.DB) AccountStore {
	return NewAccountRepositoryWithGenerator(db, RandomAccountNumber)
}

func NewAccountRepositoryWithGenerator(db *gorm.DB, draw AccountNumberGenerator) AccountStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &accountRepository{db: db, draw: draw}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	for attempt := 0; attempt < maxAccountNumberDraws; attempt++ {
		number, err := r.draw()
		if err != nil {
			return fmt.Errorf("generate account number: %w", err)
		}

		row := *account
		row.ID = 0
		row.AccountNumber = number
		row.Balance = money.Zero
		row.Version = 0
		if row.TokenVersion == 0 {
			row.TokenVersion = 1
		}

		err = r.db.WithContext(ctx).Create(&row).Error
		if err == nil {
			*account = row
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return classify(ctx, "create account", err)
		}

		// The unique violation is either the owner or the number.
		taken, lookupErr := r.ownerTaken(ctx, account.Username, account.Email)
		if lookupErr != nil {
			return lookupErr
		}
		if taken {
			return apperrors.ErrOwnerExists
		}
	}
	return apperrors.ErrConcurrentUpdate.WithMessage("could not allocate a unique account number")
}

func (r *accountRepository) ownerTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, classify(ctx, "check owner", err)
	}
	return count > 0, nil
}

func (r *accountRepository) first(ctx context.Context, query string, arg any) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where(query, arg).First(&account).Error; err != nil {
		return nil, classify(ctx, "get account", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *accountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return r.first(ctx, "account_number = ?", accountNumber)
}

// lockAccounts selects the rows FOR UPDATE in ascending account-number
// order and returns them keyed by number.
func lockAccounts(tx *gorm.DB, numbers ...string) (map[string]*models.Account, error) {
	var rows []models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_number IN ?", numbers).
		Order("account_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byNumber := make(map[string]*models.Account, len(rows))
	for i := range rows {
		byNumber[rows[i].AccountNumber] = &rows[i]
	}
	return byNumber, nil
}

func saveBalance(tx *gorm.DB, account *models.Account, balance money.Amount, now time.Time) error {
	err := tx.Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"balance":    balance,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	account.Balance = balance
	account.Version++
	account.UpdatedAt = now
	return nil
}

func (r *accountRepository) ApplyDelta(ctx context.Context, accountNumber string, delta money.Amount) (*models.Account, error) {
	var updated *models.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockAccounts(tx, accountNumber)
		if err != nil {
			return err
		}
		account, ok := locked[accountNumber]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		if !money.CanCredit(account.Balance, delta) {
			return apperrors.ErrBalanceLimit
		}
		next := account.Balance + delta
		if next < 0 {
			return apperrors.ErrInsufficientBalance
		}
		if err := saveBalance(tx, account, next, time.Now()); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, classify(ctx, "apply delta", err)
	}
	return updated, nil
}

func (r *accountRepository) Transfer(ctx context.Context, from, to string, amount money.Amount) (*models.Account, *models.Account, error) {
	if amount <= 0 {
		return nil, nil, apperrors.ErrInvalidAmount
	}

	var sender, receiver *models.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockAccounts(tx, from, to)
		if err != nil {
			return err
		}
		var ok bool
		if sender, ok = locked[from]; !ok {
			return apperrors.ErrAccountNotFound.WithMessage("sender account not found")
		}
		if receiver, ok = locked[to]; !ok {
			return apperrors.ErrAccountNotFound.WithMessage("receiver account not found")
		}
		if sender.Balance < amount {
			return apperrors.ErrInsufficientBalance
		}
		if from == to {
			return nil
		}
		if !money.CanCredit(receiver.Balance, amount) {
			return apperrors.ErrBalanceLimit
		}

		now := time.Now()
		if err := saveBalance(tx, sender, sender.Balance-amount, now); err != nil {
			return err
		}
		return saveBalance(tx, receiver, receiver.Balance+amount, now)
	})
	if err != nil {
		return nil, nil, classify(ctx, "transfer", err)
	}
	return sender, receiver, nil
}

func (r *accountRepository) IncrementTokenVersion(ctx context.Context, id uint) (int, error) {
	var version int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error; err != nil {
			return err
		}
		version = account.TokenVersion + 1
		return tx.Model(&account).Update("token_version", version).Error
	})
	if err != nil {
		return 0, classify(ctx, "increment token version", err)
	}
	return version, nil
}

func (r *accountRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.ErrStoreUnavailable.Wrap(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

// classify maps driver and context failures onto the domain taxonomy.
// Domain errors raised inside a transaction pass through unchanged.
func classify(ctx context.Context, op string, err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrAccountNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return apperrors.ErrStoreUnavailable.Wrap(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return apperrors.ErrConcurrentUpdate.Wrap(err)
		case pgLockNotAvailable, pgQueryCanceled:
			return apperrors.ErrStoreUnavailable.Wrap(err)
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDeadlock:
			return apperrors.ErrConcurrentUpdate.Wrap(err)
		case mysqlLockWaitTimeout:
			return apperrors.ErrStoreUnavailable.Wrap(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
