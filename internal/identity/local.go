package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"codecamp/internal/auth"
	"codecamp/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Local keeps accounts in the application database and issues JWT sessions.
type Local struct {
	db     *gorm.DB
	tokens *auth.Issuer
	cost   int
}

// NewLocal returns a provider hashing passwords with the given bcrypt cost;
// zero selects bcrypt.DefaultCost.
func NewLocal(db *gorm.DB, tokens *auth.Issuer, cost int) *Local {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Local{db: db, tokens: tokens, cost: cost}
}

func (l *Local) SignUp(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	rec := &models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, Error.Wrap(err)
	}
	return toAccount(rec), nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	rec, err := l.byEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return l.session(rec)
}

func (l *Local) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := l.tokens.Parse(refreshToken, auth.PurposeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rec, err := l.byID(ctx, claims.UserID())
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return l.session(rec)
}

func (l *Local) VerifyToken(ctx context.Context, accessToken string) (*Account, error) {
	claims, err := l.tokens.Parse(accessToken, auth.PurposeAccess)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rec, err := l.byID(ctx, claims.UserID())
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return toAccount(rec), nil
}

func (l *Local) PasswordResetToken(ctx context.Context, email string) (string, error) {
	rec, err := l.byEmail(ctx, email)
	if err != nil {
		return "", err
	}
	tok, err := l.tokens.GenerateResetToken(rec.ID, rec.Email)
	return tok, Error.Wrap(err)
}

// ResetPassword accepts a reset token only if it was issued after the
// current password was set, so each token works once.
func (l *Local) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := l.tokens.Parse(token, auth.PurposeReset)
	if err != nil {
		return ErrInvalidToken
	}
	rec, err := l.byID(ctx, claims.UserID())
	if errors.Is(err, ErrAccountNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Time.Before(rec.UpdatedAt.Truncate(time.Second)) {
		return ErrInvalidToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), l.cost)
	if err != nil {
		return Error.Wrap(err)
	}
	err = l.db.WithContext(ctx).Model(rec).Updates(map[string]any{
		"password_hash": string(hash),
		"updated_at":    time.Now().Add(time.Second),
	}).Error
	return Error.Wrap(err)
}

func (l *Local) EmailConfirmationToken(ctx context.Context, accountID string) (string, error) {
	rec, err := l.byID(ctx, accountID)
	if err != nil {
		return "", err
	}
	tok, err := l.tokens.GenerateVerifyToken(rec.ID, rec.Email)
	return tok, Error.Wrap(err)
}

func (l *Local) ConfirmEmail(ctx context.Context, token string) (*Account, error) {
	claims, err := l.tokens.Parse(token, auth.PurposeVerify)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rec, err := l.byID(ctx, claims.UserID())
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if rec.EmailConfirmedAt == nil {
		now := time.Now().UTC()
		if err := l.db.WithContext(ctx).Model(rec).Update("email_confirmed_at", now).Error; err != nil {
			return nil, Error.Wrap(err)
		}
		rec.EmailConfirmedAt = &now
	}
	return toAccount(rec), nil
}

func (l *Local) DeleteAccount(ctx context.Context, accountID string) error {
	res := l.db.WithContext(ctx).Where("id = ?", accountID).Delete(&models.Identity{})
	if res.Error != nil {
		return Error.Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (l *Local) session(rec *models.Identity) (*Session, error) {
	access, err := l.tokens.GenerateAccessToken(rec.ID, rec.Email)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	refresh, err := l.tokens.GenerateRefreshToken(rec.ID, rec.Email)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    l.tokens.AccessExpiry(),
		Account:      toAccount(rec),
	}, nil
}

func (l *Local) byEmail(ctx context.Context, email string) (*models.Identity, error) {
	var rec models.Identity
	err := l.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&rec).Error
	return lookup(&rec, err)
}

func (l *Local) byID(ctx context.Context, id string) (*models.Identity, error) {
	var rec models.Identity
	err := l.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	return lookup(&rec, err)
}

func lookup(rec *models.Identity, err error) (*models.Identity, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return rec, nil
}

func toAccount(rec *models.Identity) *Account {
	return &Account{
		ID:             rec.ID,
		Email:          rec.Email,
		EmailConfirmed: rec.EmailConfirmedAt != nil,
		CreatedAt:      rec.CreatedAt,
	}
}
