package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "orusbank/internal/errors"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator     *validator.Validate
	structValidatorErr  error
	structValidatorOnce sync.Once
)

func structs() (*validator.Validate, error) {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		custom := map[string]func(string) bool{
			"phone":          IsPhone,
			"account_number": IsAccountNumber,
		}
		for tag, check := range custom {
			check := check // per-iteration copy; go.mod targets go1.21 loop semantics
			err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return check(fl.Field().String())
			})
			if err != nil {
				structValidatorErr = fmt.Errorf("validation: register %q: %w", tag, err)
				return
			}
		}
		structValidator = v
	})
	return structValidator, structValidatorErr
}

// Struct checks the `validate` tags on a request DTO and reports failures
// through the same Validator messages used elsewhere. Missing fields win;
// a bad phone on its own is reported as INVALID_PHONE.
func Struct(dto interface{}) error {
	validate, err := structs()
	if err != nil {
		return err
	}
	err = validate.Struct(dto)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.ErrInvalidRequest.Wrap(err)
	}

	v := New()
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			v.Required(fe.Field(), "")
		case "email":
			v.AddError(fe.Field(), "must be a valid email address")
		case "phone":
			v.AddError(fe.Field(), "must be exactly 11 digits")
		case "account_number":
			v.AddError(fe.Field(), "must be exactly 10 digits")
		case "min":
			v.AddError(fe.Field(), "must be at least "+fe.Param()+" characters long")
		case "max":
			v.AddError(fe.Field(), "must not be more than "+fe.Param()+" characters long")
		default:
			v.AddError(fe.Field(), "is invalid")
		}
	}
	if !v.missing && len(v.Errors) == 1 {
		for _, fe := range fieldErrs {
			if fe.Tag() == "phone" {
				return apperrors.ErrInvalidPhone
			}
		}
	}
	return v.Err()
}
