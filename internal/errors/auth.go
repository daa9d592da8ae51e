package errors

var (
	ErrOwnerExists = &DomainError{
		Kind:    KindDuplicateOwner,
		Code:    "DUPLICATE_OWNER",
		Message: "user with this email or username already exists",
	}
	ErrInvalidCredentials = &DomainError{
		Kind:    KindAuthentication,
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid credentials",
	}
	ErrMissingToken = &DomainError{
		Kind:    KindAuthentication,
		Code:    "MISSING_TOKEN",
		Message: "access denied: no token provided",
	}
	ErrInvalidToken = &DomainError{
		Kind:    KindAuthentication,
		Code:    "INVALID_TOKEN",
		Message: "invalid token",
	}
	ErrSessionExpired = &DomainError{
		Kind:    KindAuthentication,
		Code:    "SESSION_EXPIRED",
		Message: "session expired",
	}
)
