package middleware

import (
	"context"
	"strings"

	"codecamp/internal/apperror"
	"codecamp/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxUser   = "user"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// TokenVerifier resolves a bearer token to the user it belongs to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired resolves the bearer token and stores the user in the context.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperror.Authentication("Missing authorization header"))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			abort(c, apperror.Authentication("Invalid authorization format"))
			return
		}
		u, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(ctxUser, u)
		c.Set(ctxUserID, u.ID)
		c.Set(ctxRole, u.Role)
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		if role == "" {
			abort(c, apperror.Authentication(""))
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		abort(c, apperror.Authorization(""))
	}
}

// GetUserID returns the authenticated user ID (must be used after AuthRequired).
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUser returns the authenticated user (must be used after AuthRequired).
func GetUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func abort(c *gin.Context, err error) {
	status, body := apperror.Response(err)
	c.AbortWithStatusJSON(status, body)
}
