// Package validation holds the request schemas and checks them with
// go-playground/validator, reporting every violated constraint at once.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"codecamp/internal/apperror"
	"codecamp/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}[0-9]$`)
)

// sanitizer is implemented by schemas that trim or normalise input before checks.
type sanitizer interface {
	sanitize()
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
			_, ok := domain.PlanByID(fl.Field().String())
			return ok
		})
		_ = validate.RegisterValidation("payment_method", oneOf(domain.PaymentMethods))
		_ = validate.RegisterValidation("payment_status", oneOf(domain.PaymentStatuses))
		_ = validate.RegisterValidation("role", oneOf(domain.Roles))
	})
	return validate
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if a == v {
				return true
			}
		}
		return false
	}
}

// StrongPassword requires at least 8 characters with an upper case letter,
// a lower case letter and a digit.
func StrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Validate sanitizes v (a pointer to a schema) and checks every constraint.
// It returns *apperror.ValidationError listing all violations.
func Validate(v any) error {
	if s, ok := v.(sanitizer); ok {
		s.sanitize()
	}
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("Invalid input", apperror.FieldError{Field: "", Rule: "invalid", Message: err.Error()})
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		fields = append(fields, apperror.FieldError{
			Field:   field,
			Rule:    fe.Tag(),
			Message: message(field, fe),
		})
	}
	return apperror.Validation("Validation failed", fields...)
}

// Decode unmarshals raw JSON into v and validates it.
func Decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperror.Validation("Invalid request body", apperror.FieldError{Rule: "json", Message: err.Error()})
	}
	return Validate(v)
}

// fieldPath drops the root struct name: "EnrollmentRequest.profileData.address.city" -> "profileData.address.city".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "password":
		return fmt.Sprintf("%s must be at least 8 characters and contain an uppercase letter, a lowercase letter and a number", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "plan":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(domain.PlanIDs(), ", "))
	case "payment_method":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(domain.PaymentMethods, ", "))
	case "payment_status":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(domain.PaymentStatuses, ", "))
	case "role":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(domain.Roles, ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date in the format %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "alpha", "uppercase", "numeric":
		return fmt.Sprintf("%s must be %s", field, fe.Tag())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// Required reports a single missing field.
func Required(field string) *apperror.ValidationError {
	return apperror.Validation("Validation failed", apperror.FieldError{
		Field:   field,
		Rule:    "required",
		Message: fmt.Sprintf("%s is required", field),
	})
}
