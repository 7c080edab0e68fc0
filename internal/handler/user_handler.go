package handler

import (
	"net/http"

	"codecamp/internal/middleware"
	"codecamp/internal/service"
	"codecamp/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc *service.UserService
	log *zap.Logger
}

func NewUserHandler(svc *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// Enroll handles POST /api/users/enroll.
func (h *UserHandler) Enroll(c *gin.Context) {
	var req validation.EnrollmentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	u, err := h.svc.EnrollUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// UpdateMe handles PATCH /api/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req validation.UserUpdate
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	u, err := h.svc.UpdateUserProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// DeleteMe handles DELETE /api/users/me.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account deleted"})
}
