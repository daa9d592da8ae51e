package models

import (
	"time"

	"orusbank/internal/money"
)

// Account is a registered user's ledger account. The credential fields are
// owned by the auth service; the ledger only reads and mutates Balance.
type Account struct {
	ID            uint         `gorm:"primarykey" json:"id"`
	AccountNumber string       `gorm:"size:10;uniqueIndex;not null" json:"accountNumber"`
	Username      string       `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email         string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string       `gorm:"not null" json:"-"`
	Balance       money.Amount `gorm:"type:bigint;not null;default:0;check:balance >= 0" json:"balance"`
	TokenVersion  int          `gorm:"not null;default:1" json:"-"`
	Version       int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// Identity is the verified caller attached to a request by the auth layer.
type Identity struct {
	AccountID     uint
	AccountNumber string
	Email         string
}

// Owns reports whether the identity is bound to the given account number.
func (i Identity) Owns(accountNumber string) bool {
	return i.AccountNumber != "" && i.AccountNumber == accountNumber
}
