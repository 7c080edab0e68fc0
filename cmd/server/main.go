package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codecamp/config"
	"codecamp/internal/auth"
	"codecamp/internal/database"
	"codecamp/internal/identity"
	"codecamp/internal/logging"
	"codecamp/internal/middleware"
	"codecamp/internal/router"
	"codecamp/pkg/email"
	"codecamp/pkg/payment"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	templates, err := email.NewTemplates()
	if err != nil {
		logger.Fatal("email templates", zap.Error(err))
	}
	var mailer email.Mailer = email.NewLogMailer(logger.Named("mail"))
	if cfg.SMTP.Host != "" {
		mailer = email.NewClient(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			UseTLS:   cfg.SMTP.UseTLS,
		})
	}

	gateway, err := payment.New(payment.Config{
		Name:            cfg.Payment.Gateway,
		SuccessRate:     cfg.Payment.SuccessRate,
		Delay:           cfg.Payment.ProcessingDelay,
		WebhookSecret:   cfg.Payment.WebhookSecret,
		RedirectBaseURL: cfg.Payment.RedirectBaseURL,
	})
	if err != nil {
		logger.Fatal("payment gateway", zap.Error(err))
	}

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	deps := router.Deps{
		Log:       logger,
		Identity:  identity.NewLocal(db, auth.NewIssuer(cfg.JWT), 0),
		Gateway:   gateway,
		Mailer:    mailer,
		Templates: templates,
		Limiter:   limiter,
	}
	if cfg.IsProduction() && gateway.Name() == "stub" {
		logger.Warn("payment gateway is the stub; configure a real gateway before taking payments")
	}
	svc := router.NewServices(cfg, db, deps)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.Users.EnsureAdmin(seedCtx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		logger.Error("seed admin", zap.Error(err))
	}
	cancelSeed()

	engine := router.Setup(cfg, db, svc, deps)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newLimiter returns the shared redis limiter when redis is enabled and
// reachable, else the in-process one.
func newLimiter(cfg *config.Config, logger *zap.Logger) (middleware.RateLimiter, func()) {
	rl := cfg.RateLimit
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := client.Ping(ctx).Err()
		if err == nil {
			logger.Info("rate limiting via redis", zap.String("addr", cfg.Redis.Addr))
			return middleware.NewRedisRateLimiter(client, rl.Requests, rl.Window), func() { _ = client.Close() }
		}
		logger.Warn("redis unavailable, rate limiting in memory", zap.Error(err))
		_ = client.Close()
	}
	mem := middleware.NewInMemoryRateLimiter(rl.Requests, rl.Window)
	return mem, mem.Close
}
