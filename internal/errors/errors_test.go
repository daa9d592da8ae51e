package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesCodeAndKind(t *testing.T) {
	err := fmt.Errorf("withdraw: %w", ErrInsufficientBalance)

	assert.True(t, stderrors.Is(err, ErrInsufficientBalance))
	assert.True(t, stderrors.Is(err, ErrInsufficientFunds))
	assert.False(t, stderrors.Is(err, ErrValidation))
	assert.False(t, stderrors.Is(err, ErrAccountNotFound))
}

func TestDomainError_WrapKeepsIdentity(t *testing.T) {
	cause := stderrors.New("lock wait exceeded")
	err := ErrStoreUnavailable.Wrap(cause)

	assert.True(t, stderrors.Is(err, ErrStoreUnavailable))
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.Retryable())
	assert.Contains(t, err.Error(), "lock wait exceeded")
	assert.Nil(t, ErrStoreUnavailable.Err, "sentinel must not be mutated")
}

func TestDomainError_WithMessage(t *testing.T) {
	err := ErrAccountNotFound.WithMessage("receiver account %s not found", "1234567890")

	assert.Equal(t, "receiver account 1234567890 not found", err.Error())
	assert.True(t, stderrors.Is(err, ErrAccountNotFound))
	assert.False(t, err.Retryable())
}
