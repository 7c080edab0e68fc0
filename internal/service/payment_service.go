package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codecamp/internal/apperror"
	"codecamp/internal/domain"
	"codecamp/internal/models"
	"codecamp/internal/repository"
	"codecamp/internal/validation"
	"codecamp/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PaymentResult is the outcome of ProcessPayment.
type PaymentResult struct {
	Payment     *models.Payment `json:"payment"`
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	RedirectURL string          `json:"redirectUrl,omitempty"`
}

// WebhookResult reports whether a webhook changed anything.
type WebhookResult struct {
	Handled bool   `json:"handled"`
	Message string `json:"message"`
}

type PaymentService struct {
	store    *repository.Store
	users    *UserService
	gateway  payment.Gateway
	notify   *NotificationService
	activity *ActivityRecorder
	log      *zap.Logger
}

func NewPaymentService(store *repository.Store, users *UserService, gateway payment.Gateway, notify *NotificationService, activity *ActivityRecorder, log *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		users:    users,
		gateway:  gateway,
		notify:   notify,
		activity: activity,
		log:      log.Named("payments"),
	}
}

// ProcessPayment records a pending payment, charges it through the gateway
// and stores the outcome.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *validation.PaymentRequest) (*PaymentResult, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	if err := checkPlanPrice(req); err != nil {
		return nil, err
	}
	u, err := s.users.MustGetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	p := &models.Payment{
		ID:               domain.PaymentIDPrefix + suffix,
		UserID:           u.ID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Status:           domain.PaymentStatusPending,
		PaymentMethod:    req.PaymentMethod,
		TransactionID:    domain.TransactionIDPrefix + suffix,
		SubscriptionPlan: req.SubscriptionPlan,
		PaymentDate:      time.Now().UTC(),
	}
	meta := models.PaymentMetadata{Gateway: s.gateway.Name()}
	if m := req.Metadata; m != nil {
		meta.CardLast4 = m.CardLast4
		meta.CardBrand = m.CardBrand
		meta.BillingName = m.BillingName
		meta.BillingEmail = m.BillingEmail
		meta.BillingAddress = m.BillingAddress
		meta.Phone = m.Phone
	}
	p.Metadata = datatypes.NewJSONType(meta)

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Payments.Create(ctx, p); err != nil {
			return err
		}
		return tx.Users.UpdateFields(ctx, u.ID, map[string]any{"payment_status": domain.PaymentStatusPending})
	})
	if err != nil {
		return nil, dbError("Failed to create payment", err)
	}
	s.activity.Record(ctx, u.ID, domain.ActionPaymentCreated, "payment", p.ID, map[string]any{"amount": p.Amount, "currency": p.Currency})

	res, gwErr := s.gateway.Charge(ctx, payment.ChargeRequest{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		UserID:        u.ID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        p.PaymentMethod,
		Description:   fmt.Sprintf("%s subscription", p.SubscriptionPlan),
	})
	if gwErr != nil {
		s.log.Error("gateway charge failed", zap.String("payment_id", p.ID), zap.Error(gwErr))
		// the context may already be done; record the failure regardless
		if _, err := s.setStatus(context.WithoutCancel(ctx), p.ID, domain.PaymentStatusFailed, func(p *models.Payment) {
			meta := p.Metadata.Data()
			meta.FailureReason = "Gateway error"
			p.Metadata = datatypes.NewJSONType(meta)
		}); err != nil {
			s.log.Error("could not mark payment failed", zap.String("payment_id", p.ID), zap.Error(err))
		}
		return nil, apperror.PaymentGateway(gwErr)
	}

	status := domain.PaymentStatusPending
	switch {
	case res.Succeeded():
		status = domain.PaymentStatusCompleted
	case res.Status == payment.StatusDeclined:
		status = domain.PaymentStatusFailed
	}
	p, err = s.setStatus(ctx, p.ID, status, func(p *models.Payment) {
		meta := p.Metadata.Data()
		meta.GatewayReference = res.Reference
		meta.FailureReason = res.FailureReason
		p.Metadata = datatypes.NewJSONType(meta)
	})
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{Payment: p, RedirectURL: res.RedirectURL}
	switch p.Status {
	case domain.PaymentStatusCompleted:
		result.Success = true
		result.Message = "Payment processed successfully"
		s.activity.Record(ctx, u.ID, domain.ActionPaymentCompleted, "payment", p.ID, nil)
		warn(s.log, "payment success email", s.notify.SendPaymentSuccess(ctx, u, p), zap.String("payment_id", p.ID))
	case domain.PaymentStatusFailed:
		result.Message = "Payment failed: " + res.FailureReason
		s.activity.Record(ctx, u.ID, domain.ActionPaymentFailed, "payment", p.ID, map[string]any{"reason": res.FailureReason})
		warn(s.log, "payment failure email", s.notify.SendPaymentFailure(ctx, u, p, res.FailureReason), zap.String("payment_id", p.ID))
	default:
		result.Success = true
		result.Message = "Payment is being processed"
	}
	return result, nil
}

// VerifyPaymentAndGrantAccess activates the subscription paid for by a
// completed payment owned by userID.
func (s *PaymentService) VerifyPaymentAndGrantAccess(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	p, err := s.store.Payments.GetByID(ctx, paymentID)
	if isNotFound(err) {
		return nil, apperror.PaymentVerification("Payment not found")
	}
	if err != nil {
		return nil, dbError("Failed to load payment", err)
	}
	if p.UserID != userID {
		return nil, apperror.PaymentVerification("Payment does not belong to this user")
	}
	if p.Status != domain.PaymentStatusCompleted {
		return nil, apperror.PaymentVerification("Payment has not been completed")
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		return tx.Users.UpdateFields(ctx, userID, map[string]any{
			"payment_status":    domain.PaymentStatusCompleted,
			"subscription_plan": p.SubscriptionPlan,
		})
	})
	if isNotFound(err) {
		return nil, apperror.UserNotFound(userID)
	}
	if err != nil {
		return nil, dbError("Failed to grant access", err)
	}
	s.grantAccess(ctx, userID, p)
	return p, nil
}

// HandlePaymentWebhook applies a gateway event to the payment and its owner.
// Unknown events and disallowed status changes are logged and ignored.
func (s *PaymentService) HandlePaymentWebhook(ctx context.Context, payload *validation.PaymentWebhook) (*WebhookResult, error) {
	if err := validation.Validate(payload); err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("event", payload.Event), zap.String("payment_id", payload.PaymentID))

	target, known := domain.StatusForEvent(payload.Event)
	if !known {
		log.Info("ignoring unknown webhook event")
		return &WebhookResult{Message: "Event ignored"}, nil
	}

	var (
		p       *models.Payment
		ignored bool
		before  string
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		p, err = tx.Payments.GetByIDForUpdate(ctx, payload.PaymentID)
		if err != nil {
			return err
		}
		before = p.Status
		if !domain.CanTransition(p.Status, target) {
			ignored = true
			return nil
		}
		p.Status = target
		meta := p.Metadata.Data()
		meta.LastEvent = payload.Event
		if payload.TransactionID != "" {
			meta.GatewayReference = payload.TransactionID
		}
		switch target {
		case domain.PaymentStatusFailed:
			meta.FailureReason = payload.Reason
		case domain.PaymentStatusRefunded:
			amount := p.Amount
			if payload.Amount > 0 && payload.Amount < p.Amount {
				amount = payload.Amount
			}
			now := time.Now().UTC()
			p.RefundAmount = &amount
			p.RefundReason = payload.Reason
			p.RefundedAt = &now
		}
		p.Metadata = datatypes.NewJSONType(meta)
		if err := tx.Payments.Update(ctx, p); err != nil {
			return err
		}

		fields := map[string]any{"payment_status": target}
		if target == domain.PaymentStatusCompleted {
			fields["subscription_plan"] = p.SubscriptionPlan
		}
		if target == domain.PaymentStatusRefunded && *p.RefundAmount < p.Amount {
			// partial refunds keep the subscription
			return nil
		}
		return tx.Users.UpdateFields(ctx, p.UserID, fields)
	})
	if isNotFound(err) {
		return nil, apperror.NotFound("Payment")
	}
	if err != nil {
		return nil, dbError("Failed to apply payment webhook", err)
	}
	if ignored {
		log.Warn("ignoring disallowed payment status change", zap.String("from", before), zap.String("to", target))
		return &WebhookResult{Message: fmt.Sprintf("Payment already %s", before)}, nil
	}

	u, err := s.users.GetUserByID(ctx, p.UserID)
	warn(log, "webhook user lookup", err)
	switch target {
	case domain.PaymentStatusCompleted:
		s.activity.Record(ctx, p.UserID, domain.ActionPaymentCompleted, "payment", p.ID, map[string]any{"source": "webhook"})
		s.grantAccess(ctx, p.UserID, p)
		if u != nil && before != target {
			warn(log, "payment success email", s.notify.SendPaymentSuccess(ctx, u, p))
		}
	case domain.PaymentStatusFailed:
		s.activity.Record(ctx, p.UserID, domain.ActionPaymentFailed, "payment", p.ID, map[string]any{"source": "webhook", "reason": payload.Reason})
		s.revokeAccess(ctx, p.UserID, p, "payment failed")
		if u != nil && before != target {
			warn(log, "payment failure email", s.notify.SendPaymentFailure(ctx, u, p, payload.Reason))
		}
	case domain.PaymentStatusRefunded:
		s.activity.Record(ctx, p.UserID, domain.ActionPaymentRefunded, "payment", p.ID, map[string]any{"source": "webhook"})
		if *p.RefundAmount >= p.Amount {
			s.revokeAccess(ctx, p.UserID, p, "payment refunded")
		}
	}
	log.Info("webhook applied", zap.String("from", before), zap.String("to", target))
	return &WebhookResult{Handled: true, Message: "Webhook processed successfully"}, nil
}

// ProcessRefund refunds a completed payment in full or in part. A full
// refund reverts the owner's payment status and revokes access.
func (s *PaymentService) ProcessRefund(ctx context.Context, paymentID string, req *validation.RefundRequest) (*models.Payment, error) {
	if req == nil {
		req = &validation.RefundRequest{}
	}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	p, err := s.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentStatusCompleted {
		return nil, apperror.Payment("Only completed payments can be refunded", nil)
	}
	amount := p.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount > p.Amount {
		return nil, apperror.Validation("", apperror.FieldError{Field: "amount", Rule: "lte", Message: "amount cannot exceed the payment amount"})
	}
	full := amount >= p.Amount

	refund, err := s.gateway.Refund(ctx, payment.RefundRequest{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		Reference:     p.Metadata.Data().GatewayReference,
		Amount:        amount,
		Currency:      p.Currency,
		Reason:        req.Reason,
	})
	if err != nil {
		return nil, apperror.PaymentGateway(err)
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		cur, err := tx.Payments.GetByIDForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(cur.Status, domain.PaymentStatusRefunded) {
			return apperror.InvalidTransition(cur.Status, domain.PaymentStatusRefunded)
		}
		cur.Status = domain.PaymentStatusRefunded
		cur.RefundAmount = &amount
		cur.RefundReason = req.Reason
		refundedAt := refund.RefundedAt
		cur.RefundedAt = &refundedAt
		meta := cur.Metadata.Data()
		meta.LastEvent = "refund:" + refund.Reference
		cur.Metadata = datatypes.NewJSONType(meta)
		if err := tx.Payments.Update(ctx, cur); err != nil {
			return err
		}
		p = cur
		if !full {
			return nil
		}
		return tx.Users.UpdateFields(ctx, cur.UserID, map[string]any{"payment_status": domain.PaymentStatusRefunded})
	})
	if err != nil {
		return nil, dbError("Failed to record refund", err)
	}

	s.activity.Record(ctx, p.UserID, domain.ActionPaymentRefunded, "payment", p.ID, map[string]any{"amount": amount, "full": full})
	if full {
		s.revokeAccess(ctx, p.UserID, p, "payment refunded")
	}
	if u, err := s.users.GetUserByID(ctx, p.UserID); err == nil && u != nil {
		warn(s.log, "refund email", s.notify.SendRefund(ctx, u, p, amount, req.Reason), zap.String("payment_id", p.ID))
	}
	return p, nil
}

func (s *PaymentService) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.store.Payments.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, apperror.NotFound("Payment")
	}
	if err != nil {
		return nil, dbError("Failed to load payment", err)
	}
	return p, nil
}

// GetPaymentForUser returns the payment if requester owns it or is an admin.
func (s *PaymentService) GetPaymentForUser(ctx context.Context, id string, requester *models.User) (*models.Payment, error) {
	p, err := s.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != requester.ID && !requester.IsAdmin() {
		return nil, apperror.Authorization("You do not have access to this payment")
	}
	return p, nil
}

// GetUserPaymentHistory lists the user's payments newest first; limit <= 0 returns all.
func (s *PaymentService) GetUserPaymentHistory(ctx context.Context, userID string, limit int) ([]models.Payment, error) {
	list, err := s.store.Payments.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, dbError("Failed to load payment history", err)
	}
	return list, nil
}

func (s *PaymentService) GetSubscriptionPlans() []domain.Plan {
	return domain.Plans()
}

// VerifyWebhookSignature authenticates a raw webhook body.
func (s *PaymentService) VerifyWebhookSignature(body []byte, signature string) bool {
	return s.gateway.VerifySignature(body, signature)
}

// setStatus moves a payment along the status machine inside a transaction.
func (s *PaymentService) setStatus(ctx context.Context, id, status string, mutate func(*models.Payment)) (*models.Payment, error) {
	var out *models.Payment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Payments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(p.Status, status) {
			return apperror.InvalidTransition(p.Status, status)
		}
		p.Status = status
		if mutate != nil {
			mutate(p)
		}
		if err := tx.Payments.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, dbError("Failed to update payment", err)
	}
	return out, nil
}

// checkPlanPrice rejects payments that do not cover the plan's catalog price.
func checkPlanPrice(req *validation.PaymentRequest) error {
	plan, ok := domain.PlanByID(req.SubscriptionPlan)
	if !ok {
		return apperror.Validation("", apperror.FieldError{Field: "subscriptionPlan", Rule: "plan", Message: "unknown subscription plan"})
	}
	if req.Currency != plan.Currency {
		return apperror.Validation("", apperror.FieldError{
			Field:   "currency",
			Rule:    "plan_currency",
			Message: fmt.Sprintf("the %s plan is priced in %s", plan.Name, plan.Currency),
		})
	}
	if req.Amount < plan.Price {
		return apperror.Validation("", apperror.FieldError{
			Field:   "amount",
			Rule:    "plan_price",
			Message: fmt.Sprintf("amount must be at least %.2f %s for the %s plan", plan.Price, plan.Currency, plan.Name),
		})
	}
	return nil
}

func (s *PaymentService) grantAccess(ctx context.Context, userID string, p *models.Payment) {
	s.log.Info("portal access granted", zap.String("user_id", userID), zap.String("plan", p.SubscriptionPlan))
	s.activity.Record(ctx, userID, domain.ActionAccessGranted, "portal", p.ID, map[string]any{"plan": p.SubscriptionPlan})
}

func (s *PaymentService) revokeAccess(ctx context.Context, userID string, p *models.Payment, reason string) {
	s.log.Info("portal access revoked", zap.String("user_id", userID), zap.String("reason", reason))
	s.activity.Record(ctx, userID, domain.ActionAccessRevoked, "portal", p.ID, map[string]any{"reason": reason})
}
