package handler

import (
	"net/http"
	"strconv"

	"codecamp/internal/middleware"
	"codecamp/internal/service"
	"codecamp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	svc *service.PaymentService
	log *zap.Logger
}

func NewPaymentHandler(svc *service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

// Process handles POST /api/payments/process. Only admins may pay on
// behalf of another user.
func (h *PaymentHandler) Process(c *gin.Context) {
	var req validation.PaymentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if u := middleware.GetUser(c); req.UserID == "" || !u.IsAdmin() {
		req.UserID = u.ID
	}
	res, err := h.svc.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body := gin.H{"success": res.Success, "payment": res.Payment, "message": res.Message}
	if res.RedirectURL != "" {
		body["redirectUrl"] = res.RedirectURL
	}
	c.JSON(http.StatusOK, body)
}

// Status handles GET /api/payments/status/:paymentId.
func (h *PaymentHandler) Status(c *gin.Context) {
	p, err := h.svc.GetPaymentForUser(c.Request.Context(), c.Param("paymentId"), middleware.GetUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": p})
}

// Verify handles POST /api/payments/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req validation.VerifyPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := validation.Validate(&req); err != nil {
		respondError(c, h.log, err)
		return
	}
	p, err := h.svc.VerifyPaymentAndGrantAccess(c.Request.Context(), middleware.GetUserID(c), req.PaymentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": p, "message": "Access granted"})
}

// History handles GET /api/payments/history?limit=N.
func (h *PaymentHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	list, err := h.svc.GetUserPaymentHistory(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payments": list})
}

// Plans handles GET /api/payments/plans.
func (h *PaymentHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "plans": h.svc.GetSubscriptionPlans()})
}

// Refund handles POST /api/payments/:paymentId/refund (admin).
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req validation.RefundRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	p, err := h.svc.ProcessRefund(c.Request.Context(), c.Param("paymentId"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": p, "message": "Refund processed successfully"})
}
