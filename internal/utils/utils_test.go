package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour, &models.UserClaims{
		AccountID:     7,
		AccountNumber: "1234567890",
		Email:         "ada@example.com",
		TokenVersion:  3,
	})
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AccountID)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, models.Identity{AccountID: 7, AccountNumber: "1234567890", Email: "ada@example.com"}, claims.Identity())
}

func TestParseTokenRejects(t *testing.T) {
	good, err := GenerateToken(testSecret, time.Hour, &models.UserClaims{AccountID: 1})
	require.NoError(t, err)

	_, err = ParseToken("other-secret", good)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, -time.Minute, &models.UserClaims{AccountID: 1})
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.UserClaims{AccountID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, unsigned)
	assert.Error(t, err)

	_, err = GenerateToken("", time.Hour, &models.UserClaims{AccountID: 1})
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 400, StatusFor(apperrors.KindValidation))
	assert.Equal(t, 400, StatusFor(apperrors.KindInsufficientFunds))
	assert.Equal(t, 404, StatusFor(apperrors.KindNotFound))
	assert.Equal(t, 409, StatusFor(apperrors.KindConflict))
	assert.Equal(t, 409, StatusFor(apperrors.KindDuplicateOwner))
	assert.Equal(t, 503, StatusFor(apperrors.KindUnavailable))
	assert.Equal(t, 401, StatusFor(apperrors.KindAuthentication))
	assert.Equal(t, 403, StatusFor(apperrors.KindForbidden))
}

func TestErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Get("/domain", func(c *fiber.Ctx) error {
		return Error(c, apperrors.ErrInsufficientBalance)
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return Error(c, errors.New("pq: relation does not exist"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/domain", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INSUFFICIENT_FUNDS", body["code"])

	resp, err = app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.False(t, strings.Contains(string(raw), "relation"))
}
