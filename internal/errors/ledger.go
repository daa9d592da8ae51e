package errors

var (
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrInvalidPhone = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_PHONE",
		Message: "invalid phone number, expected 11 digits",
	}
	ErrMissingField = &DomainError{
		Kind:    KindValidation,
		Code:    "MISSING_FIELD",
		Message: "required field is missing",
	}
	ErrInvalidRequest = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_REQUEST",
		Message: "invalid request",
	}
	ErrAccountNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrInsufficientBalance = &DomainError{
		Kind:    KindInsufficientFunds,
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient balance",
	}
	ErrBalanceLimit = &DomainError{
		Kind:    KindValidation,
		Code:    "BALANCE_LIMIT_EXCEEDED",
		Message: "credit would exceed the maximum account balance",
	}
	ErrConcurrentUpdate = &DomainError{
		Kind:    KindConflict,
		Code:    "CONCURRENT_UPDATE",
		Message: "account was updated concurrently, retry",
	}
	ErrStoreUnavailable = &DomainError{
		Kind:    KindUnavailable,
		Code:    "STORE_UNAVAILABLE",
		Message: "account store unavailable, retry",
	}
	ErrAccountNotOwned = &DomainError{
		Kind:    KindForbidden,
		Code:    "ACCOUNT_NOT_OWNED",
		Message: "account does not belong to the caller",
	}
)
