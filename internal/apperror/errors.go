// Package apperror defines the typed errors returned by the service layer and
// the normalizer that turns any error into an HTTP status and JSON body.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Stable codes for client-side branching.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeAuthentication      = "AUTHENTICATION_ERROR"
	CodeAuthorization       = "AUTHORIZATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodePayment             = "PAYMENT_ERROR"
	CodeRateLimit           = "RATE_LIMIT_EXCEEDED"
	CodeDatabase            = "DATABASE_ERROR"
	CodeExternalService     = "EXTERNAL_SERVICE_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeUserAlreadyExists   = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeEmailNotVerified    = "EMAIL_NOT_VERIFIED"
	CodePortalAccessDenied  = "PORTAL_ACCESS_DENIED"
	CodeSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
	CodePaymentRequired     = "PAYMENT_REQUIRED"
	CodePaymentVerification = "PAYMENT_VERIFICATION_FAILED"
	CodePaymentGateway      = "PAYMENT_GATEWAY_ERROR"
	CodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
)

// Error is the base application error. Operational errors are expected
// failures (bad input, missing records); non-operational ones are bugs.
type Error struct {
	Message     string
	StatusCode  int
	Code        string
	Operational bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so errors.Is(err, apperror.UserNotFound("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.StatusCode == e.StatusCode
}

func newError(status int, code, msg string, err error) *Error {
	return &Error{Message: msg, StatusCode: status, Code: code, Operational: true, Err: err}
}

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError enumerates every violated field constraint.
type ValidationError struct {
	Base   *Error
	Fields []FieldError
}

func (e *ValidationError) Unwrap() error { return e.Base }

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Base.Message
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return e.Base.Message + ": " + strings.Join(msgs, "; ")
}

// HasField reports whether field failed validation.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func Validation(msg string, fields ...FieldError) *ValidationError {
	if msg == "" {
		msg = "Validation failed"
	}
	return &ValidationError{
		Base:   newError(http.StatusBadRequest, CodeValidation, msg, nil),
		Fields: fields,
	}
}

func Authentication(msg string) *Error {
	if msg == "" {
		msg = "Authentication failed"
	}
	return newError(http.StatusUnauthorized, CodeAuthentication, msg, nil)
}

func Authorization(msg string) *Error {
	if msg == "" {
		msg = "Insufficient permissions"
	}
	return newError(http.StatusForbidden, CodeAuthorization, msg, nil)
}

func NotFound(resource string) *Error {
	if resource == "" {
		resource = "Resource"
	}
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

func Conflict(msg string) *Error {
	if msg == "" {
		msg = "Resource already exists"
	}
	return newError(http.StatusConflict, CodeConflict, msg, nil)
}

func Payment(msg string, err error) *Error {
	if msg == "" {
		msg = "Payment processing failed"
	}
	return newError(http.StatusUnprocessableEntity, CodePayment, msg, err)
}

func RateLimit(msg string) *Error {
	if msg == "" {
		msg = "Too many requests"
	}
	return newError(http.StatusTooManyRequests, CodeRateLimit, msg, nil)
}

func Database(msg string, err error) *Error {
	if msg == "" {
		msg = "Database operation failed"
	}
	return newError(http.StatusInternalServerError, CodeDatabase, msg, err)
}

func ExternalService(service string, err error) *Error {
	return newError(http.StatusBadGateway, CodeExternalService, "External service error: "+service, err)
}

func UserNotFound(id string) *Error {
	msg := "User not found"
	if id != "" {
		msg = fmt.Sprintf("User with id %s not found", id)
	}
	return newError(http.StatusNotFound, CodeUserNotFound, msg, nil)
}

func UserAlreadyExists(email string) *Error {
	return newError(http.StatusConflict, CodeUserAlreadyExists, fmt.Sprintf("User with email %s already exists", email), nil)
}

func InvalidCredentials() *Error {
	return newError(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
}

func EmailNotVerified() *Error {
	return newError(http.StatusForbidden, CodeEmailNotVerified, "Please verify your email address before logging in", nil)
}

func PortalAccessDenied(reason string) *Error {
	if reason == "" {
		reason = "Portal access denied"
	}
	return newError(http.StatusForbidden, CodePortalAccessDenied, reason, nil)
}

func SubscriptionExpired() *Error {
	return newError(http.StatusForbidden, CodeSubscriptionExpired, "Your subscription has expired", nil)
}

func PaymentRequired() *Error {
	return newError(http.StatusPaymentRequired, CodePaymentRequired, "Payment required to access this feature", nil)
}

func PaymentVerification(msg string) *Error {
	if msg == "" {
		msg = "Payment verification failed"
	}
	return newError(http.StatusBadRequest, CodePaymentVerification, msg, nil)
}

func PaymentGateway(err error) *Error {
	return newError(http.StatusBadGateway, CodePaymentGateway, "Payment gateway error", err)
}

func InvalidTransition(from, to string) *Error {
	return newError(http.StatusConflict, CodeInvalidTransition,
		fmt.Sprintf("Payment status cannot change from %s to %s", from, to), nil)
}

// HandleError normalizes any error into the taxonomy. Unknown errors become
// non-operational internal errors so their details never reach clients.
func HandleError(err error) *Error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Base
	}
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("")
	case errors.Is(err, context.DeadlineExceeded):
		return ExternalService("timeout", err)
	case errors.Is(err, context.Canceled):
		return &Error{Message: "Request cancelled", StatusCode: 499, Code: CodeInternal, Operational: true, Err: err}
	}
	return &Error{
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Err:        err,
	}
}

// Body is the uniform JSON error shape.
type Body struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Response returns the status code and body for err.
func Response(err error) (int, Body) {
	e := HandleError(err)
	body := Body{Error: e.Message, Code: e.Code}
	var verr *ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
		body.Message = verr.Error()
	}
	if e.Operational {
		if e.StatusCode >= 500 {
			body.Message = "Please try again later"
		}
	} else {
		body.Message = "An unexpected error occurred"
	}
	return e.StatusCode, body
}
