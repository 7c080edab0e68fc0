package handler

import (
	"net/http"

	"codecamp/internal/apperror"
	"codecamp/internal/service"
	"codecamp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	users  *service.UserService
	portal *service.PortalService
	log    *zap.Logger
}

func NewAdminHandler(users *service.UserService, portal *service.PortalService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, portal: portal, log: log}
}

// Users handles GET /api/admin/users?q=&role=&paymentStatus=&subscriptionPlan=&active=&page=&limit=.
func (h *AdminHandler) Users(c *gin.Context) {
	var q validation.UserSearch
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.log, apperror.Validation("Invalid query parameters"))
		return
	}
	page, err := h.users.SearchUsers(c.Request.Context(), &q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": page.Users, "pagination": gin.H{
		"page":       page.Page,
		"limit":      page.Limit,
		"total":      page.Total,
		"totalPages": page.TotalPages,
	}})
}

// SetStatus handles PATCH /api/admin/users/:id/status.
func (h *AdminHandler) SetStatus(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if req.IsActive == nil {
		respondError(c, h.log, validation.Required("isActive"))
		return
	}
	if err := h.users.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User status updated"})
}

// Analytics handles GET /api/admin/analytics.
func (h *AdminHandler) Analytics(c *gin.Context) {
	a, err := h.portal.GetPortalAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": a})
}
