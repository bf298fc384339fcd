package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/security"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetPurpose = "password_reset"

var ErrInvalidToken = errors.New("invalid token")

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// TokenIssuer signs access, refresh and password-reset tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

func (t *TokenIssuer) Secret() []byte {
	return t.secret
}

func (t *TokenIssuer) IssuePair(userID uint, email string) (*TokenPair, error) {
	refresh, err := t.sign(userID, email, middleware.TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	access, err := t.sign(userID, email, middleware.TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Refresh: refresh, Access: access}, nil
}

// RefreshAccess validates a refresh token and issues a new access token for its subject.
func (t *TokenIssuer) RefreshAccess(refresh string) (string, error) {
	claims, err := middleware.ParseToken(refresh, t.secret)
	if err != nil || claims.TokenType != middleware.TokenTypeRefresh {
		return "", ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	return t.sign(uint(id), claims.Email, middleware.TokenTypeAccess, t.accessTTL)
}

func (t *TokenIssuer) sign(userID uint, email, tokenType string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := middleware.UserClaims{
		UserID:    strconv.FormatUint(uint64(userID), 10),
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return token, nil
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetToken signs a password-reset token whose key is bound to the user's
// current password hash, so any password change revokes it.
func (t *TokenIssuer) ResetToken(userID uint, passwordHash string) (string, error) {
	now := t.now()
	claims := resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.resetTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.resetKey(userID, passwordHash))
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return token, nil
}

// VerifyResetToken checks token against the user's current password hash.
func (t *TokenIssuer) VerifyResetToken(token string, userID uint, passwordHash string) error {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.resetKey(userID, passwordHash), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Purpose != resetPurpose || claims.Subject != strconv.FormatUint(uint64(userID), 10) {
		return ErrInvalidToken
	}
	return nil
}

func (t *TokenIssuer) resetKey(userID uint, passwordHash string) []byte {
	return security.DeriveKey(t.secret, resetPurpose, strconv.FormatUint(uint64(userID), 10), passwordHash)
}
