package domain

// paymentTransitions is the allow-list of payment status edges.
// Anything not listed here is rejected, except a status "moving" to itself.
var paymentTransitions = map[string][]string{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusFailed:    {PaymentStatusPending},
	PaymentStatusCompleted: {PaymentStatusRefunded},
}

// CanTransition reports whether a payment may move from one status to another.
func CanTransition(from, to string) bool {
	if from == to {
		return IsPaymentStatus(to)
	}
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsPaymentStatus(s string) bool {
	for _, st := range PaymentStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// StatusForEvent maps a webhook event name to the payment status it implies.
func StatusForEvent(event string) (string, bool) {
	switch event {
	case EventPaymentCompleted:
		return PaymentStatusCompleted, true
	case EventPaymentFailed:
		return PaymentStatusFailed, true
	case EventPaymentRefunded:
		return PaymentStatusRefunded, true
	}
	return "", false
}
