package handler

import (
	"net/http"

	"codecamp/internal/middleware"
	"codecamp/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PortalHandler struct {
	svc *service.PortalService
	log *zap.Logger
}

func NewPortalHandler(svc *service.PortalService, log *zap.Logger) *PortalHandler {
	return &PortalHandler{svc: svc, log: log}
}

// Access handles GET /api/portal/access.
func (h *PortalHandler) Access(c *gin.Context) {
	access, err := h.svc.CheckPortalAccess(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "access": access})
}

// Dashboard handles GET /api/portal/dashboard.
func (h *PortalHandler) Dashboard(c *gin.Context) {
	d, err := h.svc.GetDashboardData(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": d})
}

// Feature handles GET /api/portal/features/:feature.
func (h *PortalHandler) Feature(c *gin.Context) {
	feature := c.Param("feature")
	ok, err := h.svc.ValidateFeatureAccess(c.Request.Context(), middleware.GetUserID(c), feature)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feature": feature, "hasAccess": ok})
}
