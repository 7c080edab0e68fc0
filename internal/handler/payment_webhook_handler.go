package handler

import (
	"io"
	"net/http"

	"codecamp/internal/apperror"
	"codecamp/internal/service"
	"codecamp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-Webhook-Signature"
	maxWebhookBody  = 1 << 20
)

type PaymentWebhookHandler struct {
	svc *service.PaymentService
	log *zap.Logger
}

func NewPaymentWebhookHandler(svc *service.PaymentService, log *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc, log: log.Named("webhook")}
}

// Handle handles POST /api/payments/webhook. The body must carry a valid
// gateway signature in X-Webhook-Signature.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.fail(c, apperror.Validation("Invalid request body"))
		return
	}
	if !h.svc.VerifyWebhookSignature(body, c.GetHeader(signatureHeader)) {
		h.fail(c, apperror.Authentication("Invalid webhook signature"))
		return
	}
	var payload validation.PaymentWebhook
	if err := validation.Decode(body, &payload); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.svc.HandlePaymentWebhook(c.Request.Context(), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": res.Message})
}

func (h *PaymentWebhookHandler) fail(c *gin.Context, err error) {
	h.log.Warn("webhook rejected", zap.String("client_ip", c.ClientIP()), zap.Error(err))
	respondError(c, h.log, err)
}
