package payment

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

// Error is the class of errors returned by gateway implementations.
var Error = errs.Class("payment gateway")

// Charge outcomes reported by a gateway.
const (
	StatusSucceeded = "succeeded"
	StatusDeclined  = "declined"
	// StatusProcessing means the outcome arrives later by webhook.
	StatusProcessing = "processing"
)

type ChargeRequest struct {
	PaymentID     string
	TransactionID string
	UserID        string
	Amount        float64
	Currency      string
	Method        string
	Description   string
}

type ChargeResult struct {
	Reference     string
	Status        string
	FailureReason string
	RedirectURL   string
	ProcessedAt   time.Time
}

func (r *ChargeResult) Succeeded() bool { return r.Status == StatusSucceeded }

type RefundRequest struct {
	PaymentID     string
	TransactionID string
	Reference     string
	Amount        float64
	Currency      string
	Reason        string
}

type RefundResult struct {
	Reference  string
	Amount     float64
	RefundedAt time.Time
}

// Gateway authorizes and captures charges, refunds them, and authenticates
// the callbacks it sends.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	VerifySignature(payload []byte, signature string) bool
}

// Config selects and tunes a gateway implementation.
type Config struct {
	Name            string
	SuccessRate     float64
	Delay           time.Duration
	WebhookSecret   string
	RedirectBaseURL string
}

// New builds the gateway named by cfg.Name.
func New(cfg Config) (Gateway, error) {
	switch cfg.Name {
	case "stub":
		return NewStubGateway(cfg.SuccessRate, cfg.Delay, cfg.WebhookSecret, cfg.RedirectBaseURL), nil
	default:
		return nil, Error.New("unknown gateway %q", cfg.Name)
	}
}
