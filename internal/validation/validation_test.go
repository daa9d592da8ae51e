package validation

import (
	"testing"

	apperrors "orusbank/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("08012345678"))
	assert.False(t, IsPhone("0801234567"))
	assert.False(t, IsPhone("080123456789"))
	assert.False(t, IsPhone("0801234567a"))
	assert.False(t, IsPhone("+8012345678"))
	assert.False(t, IsPhone("٠٨٠١٢٣٤٥٦٧٨"), "non-ASCII digits")
}

func TestIsAccountNumber(t *testing.T) {
	assert.True(t, IsAccountNumber("1234567890"))
	assert.False(t, IsAccountNumber("123456789"))
	assert.False(t, IsAccountNumber("12345678901"))
}

func TestValidatorErr(t *testing.T) {
	v := New()
	v.Phone("phone", "123")
	v.AccountNumber("accountNumber", "42")
	err := v.Err()
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.EqualError(t, err, "accountNumber must be exactly 10 digits; phone must be exactly 11 digits")

	v = New()
	v.Required("email", "  ")
	v.Email("email", "  ")
	v.Phone("phone", "123")
	assert.ErrorIs(t, v.Err(), apperrors.ErrMissingField)
	assert.Equal(t, "is required", v.Errors["email"])

	assert.NoError(t, New().Err())
}

type signupDTO struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(signupDTO{Username: "ada", Email: "ada@example.com"}))

	err := Struct(signupDTO{Email: "ada@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrMissingField)
	assert.Contains(t, err.Error(), "username is required")

	err = Struct(signupDTO{Username: "ada", Email: "nope", Phone: "1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "phone must be exactly 11 digits")
}

type topUpDTO struct {
	AccountNumber string `json:"accountNumber" validate:"required,account_number"`
	Amount        string `json:"amount" validate:"required"`
	Phone         string `json:"phone" validate:"required,phone"`
}

func TestStructPhone(t *testing.T) {
	assert.NoError(t, Struct(topUpDTO{AccountNumber: "1234567890", Amount: "1", Phone: "08012345678"}))

	err := Struct(topUpDTO{AccountNumber: "1234567890", Amount: "1", Phone: "0801234567"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhone)

	err = Struct(topUpDTO{AccountNumber: "1234567890", Phone: "1"})
	assert.ErrorIs(t, err, apperrors.ErrMissingField)

	err = Struct(topUpDTO{AccountNumber: "12", Amount: "1", Phone: "1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "accountNumber must be exactly 10 digits")
}

func TestStructValidatorRegistersCustomTags(t *testing.T) {
	validate, err := structs()
	require.NoError(t, err)
	require.NotNil(t, validate)
}
