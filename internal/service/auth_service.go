package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"codecamp/internal/apperror"
	"codecamp/internal/domain"
	"codecamp/internal/identity"
	"codecamp/internal/models"
	"codecamp/internal/validation"

	"go.uber.org/zap"
)

const (
	resetRequestedMessage = "If an account with that email exists, a password reset link has been sent"
	resetConfirmedMessage = "Password has been reset successfully"
)

// AuthResult is a signed-in user with the session tokens issued for them.
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

type AuthService struct {
	users       *UserService
	idp         identity.Provider
	notify      *NotificationService
	activity    *ActivityRecorder
	resetExpiry time.Duration
	log         *zap.Logger
}

func NewAuthService(users *UserService, idp identity.Provider, notify *NotificationService, activity *ActivityRecorder, resetExpiry time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		users:       users,
		idp:         idp,
		notify:      notify,
		activity:    activity,
		resetExpiry: resetExpiry,
		log:         log.Named("auth"),
	}
}

// Register enrolls a new student and signs them in.
func (s *AuthService) Register(ctx context.Context, req *validation.EnrollmentRequest) (*AuthResult, error) {
	u, err := s.users.EnrollUser(ctx, req)
	if err != nil {
		return nil, err
	}
	sess, err := s.idp.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, apperror.ExternalService("identity provider", err)
	}
	return newAuthResult(u, sess), nil
}

// Login checks credentials, then requires an active, verified profile.
func (s *AuthService) Login(ctx context.Context, req *validation.LoginRequest) (*AuthResult, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.idp.SignIn(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, apperror.InvalidCredentials()
	}
	if err != nil {
		return nil, apperror.ExternalService("identity provider", err)
	}
	u, err := s.users.GetUserByID(ctx, sess.Account.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.InvalidCredentials()
	}
	if !u.IsActive {
		return nil, apperror.Authentication("Account is deactivated")
	}
	if !u.EmailVerified {
		return nil, apperror.EmailNotVerified()
	}
	if err := s.users.UpdateLoginInfo(ctx, u.ID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u.LoginCount++
	u.LastLoginAt = &now
	s.activity.Record(ctx, u.ID, domain.ActionLogin, "user", u.ID, nil)
	return newAuthResult(u, sess), nil
}

func (s *AuthService) Refresh(ctx context.Context, req *validation.RefreshRequest) (*AuthResult, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	sess, err := s.idp.Refresh(ctx, req.RefreshToken)
	if errors.Is(err, identity.ErrInvalidToken) {
		return nil, apperror.Authentication("Invalid or expired refresh token")
	}
	if err != nil {
		return nil, apperror.ExternalService("identity provider", err)
	}
	u, err := s.activeProfile(ctx, sess.Account.ID)
	if err != nil {
		return nil, err
	}
	return newAuthResult(u, sess), nil
}

// SendPasswordResetEmail answers the same way whether or not the email is known.
func (s *AuthService) SendPasswordResetEmail(ctx context.Context, req *validation.PasswordResetRequest) (string, error) {
	if err := validation.Validate(req); err != nil {
		return "", err
	}
	u, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if u == nil {
		s.log.Info("password reset for unknown email")
		return resetRequestedMessage, nil
	}
	token, err := s.idp.PasswordResetToken(ctx, u.Email)
	if errors.Is(err, identity.ErrAccountNotFound) {
		s.log.Warn("profile without identity account", zap.String("user_id", u.ID))
		return resetRequestedMessage, nil
	}
	if err != nil {
		return "", apperror.ExternalService("identity provider", err)
	}
	warn(s.log, "password reset email", s.notify.SendPasswordReset(ctx, u, token, s.resetExpiry), zap.String("user_id", u.ID))
	s.activity.Record(ctx, u.ID, domain.ActionPasswordResetRequest, "user", u.ID, nil)
	return resetRequestedMessage, nil
}

// ConfirmPasswordReset applies the emailed reset token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req *validation.PasswordResetConfirm) (string, error) {
	if err := validation.Validate(req); err != nil {
		return "", err
	}
	err := s.idp.ResetPassword(ctx, req.Token, req.NewPassword)
	if errors.Is(err, identity.ErrInvalidToken) {
		return "", apperror.Authentication("Invalid or expired reset token")
	}
	if err != nil {
		return "", apperror.ExternalService("identity provider", err)
	}
	s.activity.Record(ctx, "", domain.ActionPasswordResetConfirm, "user", "", nil)
	return resetConfirmedMessage, nil
}

// ConfirmEmail marks the profile verified once the provider accepts the token.
func (s *AuthService) ConfirmEmail(ctx context.Context, req *validation.VerifyEmailRequest) (*models.User, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	acct, err := s.idp.ConfirmEmail(ctx, req.Token)
	if errors.Is(err, identity.ErrInvalidToken) {
		return nil, apperror.Authentication("Invalid or expired verification token")
	}
	if err != nil {
		return nil, apperror.ExternalService("identity provider", err)
	}
	if err := s.users.VerifyEmail(ctx, acct.ID); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, acct.ID, domain.ActionEmailVerified, "user", acct.ID, nil)
	return s.users.MustGetUser(ctx, acct.ID)
}

// ResendVerification mails a fresh email confirmation link.
func (s *AuthService) ResendVerification(ctx context.Context, userID string, expiry time.Duration) error {
	u, err := s.users.MustGetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return apperror.Conflict("Email is already verified")
	}
	token, err := s.idp.EmailConfirmationToken(ctx, u.ID)
	if err != nil {
		return apperror.ExternalService("identity provider", err)
	}
	warn(s.log, "verification email", s.notify.SendEmailVerification(ctx, u, token, expiry), zap.String("user_id", u.ID))
	return nil
}

// VerifyToken resolves a bearer token to an active local profile.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.Authentication("No token provided")
	}
	acct, err := s.idp.VerifyToken(ctx, token)
	if errors.Is(err, identity.ErrInvalidToken) {
		return nil, apperror.Authentication("Invalid or expired token")
	}
	if err != nil {
		return nil, apperror.ExternalService("identity provider", err)
	}
	return s.activeProfile(ctx, acct.ID)
}

// GetUserPermissions returns the permissions granted by the user's role.
func (s *AuthService) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	u, err := s.users.MustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms := slices.Clone(domain.RolePermissions[u.Role])
	slices.Sort(perms)
	return perms, nil
}

// ValidateFeatureAccess reports whether the user's role or plan grants feature.
// premium_ features also need a completed payment.
func (s *AuthService) ValidateFeatureAccess(ctx context.Context, userID, feature string) (bool, error) {
	u, err := s.users.MustGetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if strings.HasPrefix(feature, domain.PremiumFeaturePrefix) && !u.HasPaid() {
		return false, nil
	}
	if slices.Contains(domain.RolePermissions[u.Role], feature) {
		return true, nil
	}
	return u.HasPaid() && slices.Contains(domain.FeaturesFor(u.SubscriptionPlan), feature), nil
}

func (s *AuthService) activeProfile(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.Authentication("User profile not found")
	}
	if !u.IsActive {
		return nil, apperror.Authentication("Account is deactivated")
	}
	return u, nil
}

func newAuthResult(u *models.User, sess *identity.Session) *AuthResult {
	return &AuthResult{
		User:         u,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresIn:    int64(sess.ExpiresIn.Seconds()),
	}
}
