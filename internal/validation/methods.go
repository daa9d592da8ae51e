package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "orusbank/internal/errors"
)

var (
	emailRegex         = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex         = regexp.MustCompile(`^[0-9]{11}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

// IsPhone reports whether s is exactly 11 ASCII digits.
func IsPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// IsAccountNumber reports whether s is exactly 10 ASCII digits.
func IsAccountNumber(s string) bool {
	return accountNumberRegex.MatchString(s)
}

func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Validator defines validation methods
type Validator struct {
	Errors  map[string]string
	missing bool
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first error reported for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks that a string is not blank.
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.missing = true
		v.AddError(field, "is required")
	}
}

// Email validates email format
func (v *Validator) Email(field, email string) {
	v.Check(IsEmail(email), field, "must be a valid email address")
}

func (v *Validator) Phone(field, phone string) {
	v.Check(IsPhone(phone), field, "must be exactly 11 digits")
}

func (v *Validator) AccountNumber(field, number string) {
	v.Check(IsAccountNumber(number), field, "must be exactly 10 digits")
}

// MinLength checks if a string has at least n characters
func (v *Validator) MinLength(field string, value string, n int) {
	v.Check(len(value) >= n, field, fmt.Sprintf("must be at least %d characters long", n))
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Err returns nil when valid. A missing field wins over any format error,
// and the message lists fields in name order.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+v.Errors[field])
	}
	msg := strings.Join(parts, "; ")

	if v.missing {
		return apperrors.ErrMissingField.WithMessage("%s", msg)
	}
	return apperrors.ErrInvalidRequest.WithMessage("%s", msg)
}
