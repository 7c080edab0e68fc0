package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"codecamp/internal/models"
	"codecamp/internal/repository"
	"codecamp/pkg/email"

	"go.uber.org/zap"
)

// NotificationService renders and sends transactional email and records each
// attempt. Callers treat its errors as warnings.
type NotificationService struct {
	mailer    email.Mailer
	templates *email.Templates
	repo      *repository.NotificationRepository
	appName   string
	baseURL   string
	log       *zap.Logger
}

func NewNotificationService(mailer email.Mailer, templates *email.Templates, repo *repository.NotificationRepository, appName, baseURL string, log *zap.Logger) *NotificationService {
	return &NotificationService{
		mailer:    mailer,
		templates: templates,
		repo:      repo,
		appName:   appName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log.Named("notify"),
	}
}

func (s *NotificationService) SendWelcome(ctx context.Context, u *models.User, verifyToken string) error {
	data := s.data(u)
	data.Plan = u.SubscriptionPlan
	if verifyToken != "" {
		data.Link = s.link("/verify-email", verifyToken)
	}
	return s.send(ctx, u, email.KindWelcome, data)
}

func (s *NotificationService) SendEmailVerification(ctx context.Context, u *models.User, token string, expiresIn time.Duration) error {
	data := s.data(u)
	data.Link = s.link("/verify-email", token)
	data.ExpiresIn = expiresIn.String()
	return s.send(ctx, u, email.KindVerifyEmail, data)
}

func (s *NotificationService) SendPasswordReset(ctx context.Context, u *models.User, token string, expiresIn time.Duration) error {
	data := s.data(u)
	data.Link = s.link("/reset-password", token)
	data.ExpiresIn = expiresIn.String()
	return s.send(ctx, u, email.KindPasswordReset, data)
}

func (s *NotificationService) SendPaymentSuccess(ctx context.Context, u *models.User, p *models.Payment) error {
	data := s.paymentData(u, p, p.Amount)
	return s.send(ctx, u, email.KindPaymentSuccess, data)
}

func (s *NotificationService) SendPaymentFailure(ctx context.Context, u *models.User, p *models.Payment, reason string) error {
	data := s.paymentData(u, p, p.Amount)
	data.Reason = reason
	return s.send(ctx, u, email.KindPaymentFailure, data)
}

func (s *NotificationService) SendRefund(ctx context.Context, u *models.User, p *models.Payment, amount float64, reason string) error {
	data := s.paymentData(u, p, amount)
	data.Reason = reason
	return s.send(ctx, u, email.KindRefund, data)
}

func (s *NotificationService) data(u *models.User) email.Data {
	return email.Data{AppName: s.appName, FirstName: u.FirstName}
}

func (s *NotificationService) paymentData(u *models.User, p *models.Payment, amount float64) email.Data {
	data := s.data(u)
	data.Plan = p.SubscriptionPlan
	data.PaymentID = p.ID
	data.Amount = fmt.Sprintf("%s %.2f", p.Currency, amount)
	return data
}

func (s *NotificationService) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *NotificationService) send(ctx context.Context, u *models.User, kind string, data email.Data) error {
	msg, err := s.templates.Render(kind, u.Email, data)
	if err != nil {
		return err
	}
	sendErr := s.mailer.Send(ctx, msg)

	userID := u.ID
	rec := &models.Notification{
		UserID:    &userID,
		Type:      kind,
		Recipient: u.Email,
		Subject:   msg.Subject,
		Status:    models.NotificationSent,
	}
	if sendErr != nil {
		rec.Status = models.NotificationFailed
		rec.Error = sendErr.Error()
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Warn("notification record failed", zap.String("kind", kind), zap.Error(err))
	}
	return sendErr
}
