package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StubGateway simulates a card processor for development and tests.
type StubGateway struct {
	SuccessRate     float64
	Delay           time.Duration
	WebhookSecret   string
	RedirectBaseURL string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewStubGateway(successRate float64, delay time.Duration, webhookSecret, redirectBaseURL string) *StubGateway {
	return &StubGateway{
		SuccessRate:     successRate,
		Delay:           delay,
		WebhookSecret:   webhookSecret,
		RedirectBaseURL: redirectBaseURL,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *StubGateway) Name() string { return "stub" }

func (s *StubGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, Error.New("invalid amount %.2f", req.Amount)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	res := &ChargeResult{
		Reference:   "stub_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		ProcessedAt: time.Now().UTC(),
	}
	if s.roll() < s.SuccessRate {
		res.Status = StatusSucceeded
		if s.RedirectBaseURL != "" {
			res.RedirectURL = fmt.Sprintf("%s/success?paymentId=%s", strings.TrimRight(s.RedirectBaseURL, "/"), req.PaymentID)
		}
	} else {
		res.Status = StatusDeclined
		res.FailureReason = "Card declined"
	}
	return res, nil
}

func (s *StubGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if req.Amount <= 0 {
		return nil, Error.New("invalid refund amount %.2f", req.Amount)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return &RefundResult{
		Reference:  "rfnd_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Amount:     req.Amount,
		RefundedAt: time.Now().UTC(),
	}, nil
}

// VerifySignature checks a hex HMAC-SHA256 of payload. Without a secret every
// payload is accepted.
func (s *StubGateway) VerifySignature(payload []byte, signature string) bool {
	if s.WebhookSecret == "" {
		return true
	}
	want := Sign(s.WebhookSecret, payload)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *StubGateway) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Error.Wrap(ctx.Err())
	case <-t.C:
		return nil
	}
}

func (s *StubGateway) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s.rnd.Float64()
}
