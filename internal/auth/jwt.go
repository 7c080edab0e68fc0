package auth

import (
	"errors"
	"time"

	"codecamp/config"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A token is only accepted for the purpose it was issued for.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
	PurposeReset   = "reset"
	PurposeVerify  = "verify"
)

type Claims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID is the identity id the token was issued to.
func (c *Claims) UserID() string { return c.Subject }

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and parses every token kind from one JWT config.
type Issuer struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

func (i *Issuer) GenerateAccessToken(userID, email string) (string, error) {
	return i.sign(userID, email, PurposeAccess, i.cfg.AccessExpiry)
}

func (i *Issuer) GenerateRefreshToken(userID, email string) (string, error) {
	return i.sign(userID, email, PurposeRefresh, i.cfg.RefreshExpiry)
}

func (i *Issuer) GenerateResetToken(userID, email string) (string, error) {
	return i.sign(userID, email, PurposeReset, i.cfg.ResetExpiry)
}

func (i *Issuer) GenerateVerifyToken(userID, email string) (string, error) {
	return i.sign(userID, email, PurposeVerify, i.cfg.VerifyExpiry)
}

// AccessExpiry is the lifetime of access tokens, reported to clients.
func (i *Issuer) AccessExpiry() time.Duration { return i.cfg.AccessExpiry }

func (i *Issuer) sign(userID, email, purpose string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret(purpose))
}

func (i *Issuer) secret(purpose string) []byte {
	if purpose == PurposeRefresh {
		return []byte(i.cfg.RefreshSecret)
	}
	return []byte(i.cfg.AccessSecret)
}

// Parse validates signature, expiry, issuer and purpose.
func (i *Issuer) Parse(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret(purpose), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
