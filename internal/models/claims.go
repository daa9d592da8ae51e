package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT payload issued at login.
type UserClaims struct {
	jwt.RegisteredClaims
	AccountID     uint   `json:"account_id"`
	AccountNumber string `json:"account_number"`
	Email         string `json:"email"`
	TokenVersion  int    `json:"token_version"`
}

// Identity converts verified claims into the ledger's caller identity.
func (c *UserClaims) Identity() Identity {
	return Identity{
		AccountID:     c.AccountID,
		AccountNumber: c.AccountNumber,
		Email:         c.Email,
	}
}
