package repositories

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"orusbank/internal/models"
	"orusbank/internal/money"
)

const (
	accountNumberMin = 1_000_000_000
	accountNumberMax = 9_999_999_999

	// maxAccountNumberDraws bounds collision redraws during Create.
	maxAccountNumberDraws = 16
)

// AccountStore is durable keyed storage of accounts. It is the only shared
// mutable resource in the ledger; every balance change goes through
// ApplyDelta or Transfer, which serialize the read-check-write per account.
type AccountStore interface {
	// Create assigns a fresh unique account number and a zero balance.
	// It fails with ErrOwnerExists if the username or email is taken.
	Create(ctx context.Context, account *models.Account) error

	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)

	// ApplyDelta adds delta to the balance, refusing results below zero.
	ApplyDelta(ctx context.Context, accountNumber string, delta money.Amount) (*models.Account, error)

	// Transfer debits from and credits to as one atomic unit. A transfer to
	// the same account checks existence and funds and changes nothing.
	Transfer(ctx context.Context, from, to string, amount money.Amount) (sender, receiver *models.Account, err error)

	// IncrementTokenVersion revokes every token issued for the account.
	IncrementTokenVersion(ctx context.Context, id uint) (int, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// AccountNumberGenerator draws candidate account numbers.
type AccountNumberGenerator func() (string, error)

// RandomAccountNumber draws uniformly from the 10-digit numbers without a
// leading zero.
func RandomAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(accountNumberMax-accountNumberMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+accountNumberMin, 10), nil
}
