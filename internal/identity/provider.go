// Package identity holds user accounts and credentials apart from the
// profile records kept by the user service.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/zeebo/errs"
)

// Error is the class of unexpected provider failures.
var Error = errs.Class("identity")

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAccountNotFound    = errors.New("account not found")
)

type Account struct {
	ID             string
	Email          string
	EmailConfirmed bool
	CreatedAt      time.Time
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Account      *Account
}

// Provider is the identity backend the auth and user services depend on.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Account, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	VerifyToken(ctx context.Context, accessToken string) (*Account, error)
	// PasswordResetToken returns a single-purpose token to mail to the account owner.
	PasswordResetToken(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	EmailConfirmationToken(ctx context.Context, accountID string) (string, error)
	ConfirmEmail(ctx context.Context, token string) (*Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
}
