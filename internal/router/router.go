package router

import (
	"time"

	"codecamp/config"
	"codecamp/internal/handler"
	"codecamp/internal/identity"
	"codecamp/internal/middleware"
	"codecamp/internal/repository"
	"codecamp/internal/service"
	"codecamp/pkg/email"
	"codecamp/pkg/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators built by the caller.
type Deps struct {
	Log       *zap.Logger
	Identity  identity.Provider
	Gateway   payment.Gateway
	Mailer    email.Mailer
	Templates *email.Templates
	Limiter   middleware.RateLimiter
}

// Services is the wired service layer, exposed for bootstrapping tasks.
type Services struct {
	Users    *service.UserService
	Auth     *service.AuthService
	Payments *service.PaymentService
	Portal   *service.PortalService
}

func NewServices(cfg *config.Config, db *gorm.DB, deps Deps) *Services {
	store := repository.NewStore(db)
	activity := service.NewActivityRecorder(store.Activity, deps.Log)
	notify := service.NewNotificationService(deps.Mailer, deps.Templates, store.Notifications, cfg.App.Name, cfg.App.BaseURL, deps.Log)
	users := service.NewUserService(store, deps.Identity, notify, activity, deps.Log)
	return &Services{
		Users:    users,
		Auth:     service.NewAuthService(users, deps.Identity, notify, activity, cfg.JWT.ResetExpiry, deps.Log),
		Payments: service.NewPaymentService(store, users, deps.Gateway, notify, activity, deps.Log),
		Portal:   service.NewPortalService(store, users, activity, deps.Log),
	}
}

func Setup(cfg *config.Config, db *gorm.DB, svc *Services, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	log := deps.Log
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handler.NewAuthHandler(svc.Auth, cfg.JWT.VerifyExpiry, log)
	userHandler := handler.NewUserHandler(svc.Users, log)
	paymentHandler := handler.NewPaymentHandler(svc.Payments, log)
	webhookHandler := handler.NewPaymentWebhookHandler(svc.Payments, log)
	portalHandler := handler.NewPortalHandler(svc.Portal, log)
	adminHandler := handler.NewAdminHandler(svc.Users, svc.Portal, log)
	healthHandler := handler.NewHealthHandler(db)

	authMw := middleware.AuthRequired(svc.Auth)
	adminMw := middleware.AdminRequired()

	r.GET("/healthz", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(deps.Limiter, log.Named("ratelimit")))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.POST("/confirm-reset", authHandler.ConfirmReset)
			authGroup.POST("/verify-email", authHandler.VerifyEmail)
			authGroup.POST("/resend-verification", authMw, authHandler.ResendVerification)
			authGroup.GET("/me", authMw, authHandler.Me)
		}

		users := api.Group("/users")
		{
			users.POST("/enroll", userHandler.Enroll)
			users.PATCH("/me", authMw, userHandler.UpdateMe)
			users.DELETE("/me", authMw, userHandler.DeleteMe)
		}

		payments := api.Group("/payments")
		{
			payments.GET("/plans", paymentHandler.Plans)
			payments.POST("/webhook", webhookHandler.Handle)
			payments.POST("/process", authMw, paymentHandler.Process)
			payments.GET("/status/:paymentId", authMw, paymentHandler.Status)
			payments.POST("/verify", authMw, paymentHandler.Verify)
			payments.GET("/history", authMw, paymentHandler.History)
			payments.POST("/:paymentId/refund", authMw, adminMw, paymentHandler.Refund)
		}

		portal := api.Group("/portal")
		portal.Use(authMw)
		{
			portal.GET("/access", portalHandler.Access)
			portal.GET("/dashboard", portalHandler.Dashboard)
			portal.GET("/features/:feature", portalHandler.Feature)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/users", adminHandler.Users)
			admin.PATCH("/users/:id/status", adminHandler.SetStatus)
			admin.GET("/analytics", adminHandler.Analytics)
		}
	}

	return r
}
