package utils

import (
	"errors"
	"strconv"
	"time"

	"orusbank/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "orusbank-api"

var (
	errMissingSecret = errors.New("jwt secret not configured")
	errInvalidClaims = errors.New("invalid token claims")
)

// GenerateToken signs an HS256 access token for the claims' account,
// valid for ttl from now.
func GenerateToken(secret string, ttl time.Duration, claims *models.UserClaims) (string, error) {
	if secret == "" {
		return "", errMissingSecret
	}

	now := time.Now()
	signed := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(claims.AccountID), 10),
		},
		AccountID:     claims.AccountID,
		AccountNumber: claims.AccountNumber,
		Email:         claims.Email,
		TokenVersion:  claims.TokenVersion,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, signed).SignedString([]byte(secret))
}

// ParseToken verifies signature, signing method, issuer and expiry.
func ParseToken(secret, tokenStr string) (*models.UserClaims, error) {
	if secret == "" {
		return nil, errMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.AccountID == 0 {
		return nil, errInvalidClaims
	}
	return claims, nil
}
