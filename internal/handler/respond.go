package handler

import (
	"codecamp/internal/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the uniform error body. Server-side failures are logged
// with the underlying cause, which never reaches the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, body := apperror.Response(err)
	if status >= 500 {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body into v. Constraint checks happen in the services.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperror.Validation("Invalid request body", apperror.FieldError{
			Field:   "body",
			Rule:    "json",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}
