package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusCompleted, PaymentStatusRefunded, true},
		{PaymentStatusCompleted, PaymentStatusCompleted, true},

		{PaymentStatusCompleted, PaymentStatusPending, false},
		{PaymentStatusCompleted, PaymentStatusFailed, false},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusFailed, PaymentStatusCompleted, false},
		{PaymentStatusRefunded, PaymentStatusCompleted, false},
		{PaymentStatusCancelled, PaymentStatusPending, false},
		{"bogus", "bogus", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusForEvent(t *testing.T) {
	st, ok := StatusForEvent(EventPaymentCompleted)
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusCompleted, st)

	st, ok = StatusForEvent(EventPaymentRefunded)
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusRefunded, st)

	_, ok = StatusForEvent("payment.disputed")
	assert.False(t, ok)
}
