package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
		code   string
	}{
		{Validation("").Base, http.StatusBadRequest, CodeValidation},
		{Authentication(""), http.StatusUnauthorized, CodeAuthentication},
		{Authorization(""), http.StatusForbidden, CodeAuthorization},
		{NotFound("Payment"), http.StatusNotFound, CodeNotFound},
		{Conflict(""), http.StatusConflict, CodeConflict},
		{Payment("", nil), http.StatusUnprocessableEntity, CodePayment},
		{RateLimit(""), http.StatusTooManyRequests, CodeRateLimit},
		{Database("", nil), http.StatusInternalServerError, CodeDatabase},
		{ExternalService("smtp", nil), http.StatusBadGateway, CodeExternalService},
		{UserNotFound("u1"), http.StatusNotFound, CodeUserNotFound},
		{UserAlreadyExists("a@x.com"), http.StatusConflict, CodeUserAlreadyExists},
		{InvalidCredentials(), http.StatusUnauthorized, CodeInvalidCredentials},
		{EmailNotVerified(), http.StatusForbidden, CodeEmailNotVerified},
		{PortalAccessDenied(""), http.StatusForbidden, CodePortalAccessDenied},
		{SubscriptionExpired(), http.StatusForbidden, CodeSubscriptionExpired},
		{PaymentRequired(), http.StatusPaymentRequired, CodePaymentRequired},
		{PaymentVerification(""), http.StatusBadRequest, CodePaymentVerification},
		{PaymentGateway(nil), http.StatusBadGateway, CodePaymentGateway},
		{InvalidTransition("completed", "pending"), http.StatusConflict, CodeInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, tt.err.Operational)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrorsIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", UserNotFound("u1"))
	assert.ErrorIs(t, err, UserNotFound(""))
	assert.NotErrorIs(t, err, NotFound(""))
}

func TestHandleError(t *testing.T) {
	assert.Nil(t, HandleError(nil))

	typed := Conflict("taken")
	assert.Same(t, typed, HandleError(fmt.Errorf("wrap: %w", typed)))

	verr := Validation("", FieldError{Field: "email", Rule: "required", Message: "email is required"})
	assert.Equal(t, http.StatusBadRequest, HandleError(verr).StatusCode)

	assert.Equal(t, http.StatusNotFound, HandleError(gorm.ErrRecordNotFound).StatusCode)
	assert.Equal(t, http.StatusConflict, HandleError(gorm.ErrDuplicatedKey).StatusCode)
	assert.Equal(t, http.StatusBadGateway, HandleError(context.DeadlineExceeded).StatusCode)

	unknown := HandleError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, unknown.StatusCode)
	assert.False(t, unknown.Operational)
	assert.Equal(t, "Internal server error", unknown.Message)
}

func TestResponseBody(t *testing.T) {
	status, body := Response(Validation("", FieldError{Field: "password", Rule: "password", Message: "password is weak"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body.Code)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "password", body.Fields[0].Field)

	status, body = Response(errors.New("secret database detail"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body.Error+body.Message, "secret")

	status, body = Response(Database("Failed to load user", errors.New("dial tcp")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to load user", body.Error)
	assert.NotContains(t, body.Message, "dial")
}

func TestValidationErrorHasField(t *testing.T) {
	verr := Validation("", FieldError{Field: "email"}, FieldError{Field: "password"})
	assert.True(t, verr.HasField("password"))
	assert.False(t, verr.HasField("phone"))
	var target *ValidationError
	assert.True(t, errors.As(fmt.Errorf("x: %w", verr), &target))
}
