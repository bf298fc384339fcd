package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"incident-reporting-system/pkg/apperror"
	"incident-reporting-system/pkg/security"
	"incident-reporting-system/services/auth-service/repository"
	"incident-reporting-system/services/auth-service/utils"

	"github.com/rs/zerolog"
)

const msgInvalidCredentials = "Invalid credentials"

// dummyHash keeps the unknown-email path as slow as a wrong password.
var (
	dummyHash     string
	dummyHashOnce sync.Once
)

func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = security.HashPassword("not-a-real-password")
	})
	security.CheckPasswordHash(password, dummyHash)
}

type Authenticator struct {
	users  UserStore
	tokens *utils.TokenIssuer
	log    zerolog.Logger
}

func NewAuthenticator(users UserStore, tokens *utils.TokenIssuer, log zerolog.Logger) *Authenticator {
	return &Authenticator{users: users, tokens: tokens, log: log}
}

// Login never tells the caller whether the email or the password was wrong.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*utils.TokenPair, error) {
	user, err := a.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.Internal("Failed to process login", err)
		}
		compareDummy(password)
		loginAttempts.WithLabelValues("rejected").Inc()
		a.log.Warn().Msg("failed login attempt")
		return nil, apperror.Unauthenticated(msgInvalidCredentials)
	}

	if !security.CheckPasswordHash(password, user.Password) {
		loginAttempts.WithLabelValues("rejected").Inc()
		a.log.Warn().Msg("failed login attempt")
		return nil, apperror.Unauthenticated(msgInvalidCredentials)
	}

	pair, err := a.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Internal("Failed to generate token", err)
	}

	loginAttempts.WithLabelValues("success").Inc()
	a.log.Info().Uint("user_id", user.ID).Msg("user logged in")
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (a *Authenticator) Refresh(ctx context.Context, refresh string) (string, error) {
	access, err := a.tokens.RefreshAccess(refresh)
	if err != nil {
		return "", apperror.Unauthenticated("Token is invalid or expired")
	}
	return access, nil
}
