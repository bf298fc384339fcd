package utils

import (
	"testing"
	"time"

	"incident-reporting-system/pkg/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("secret", 5*time.Minute, 24*time.Hour, 72*time.Hour)
}

func TestIssuePair(t *testing.T) {
	issuer := newIssuer()

	pair, err := issuer.IssuePair(42, "a@x.com")
	require.NoError(t, err)

	access, err := middleware.ParseToken(pair.Access, issuer.Secret())
	require.NoError(t, err)
	assert.Equal(t, "42", access.UserID)
	assert.Equal(t, "a@x.com", access.Email)
	assert.Equal(t, middleware.TokenTypeAccess, access.TokenType)

	refresh, err := middleware.ParseToken(pair.Refresh, issuer.Secret())
	require.NoError(t, err)
	assert.Equal(t, middleware.TokenTypeRefresh, refresh.TokenType)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestRefreshAccess(t *testing.T) {
	issuer := newIssuer()
	pair, err := issuer.IssuePair(7, "b@x.com")
	require.NoError(t, err)

	access, err := issuer.RefreshAccess(pair.Refresh)
	require.NoError(t, err)
	claims, err := middleware.ParseToken(access, issuer.Secret())
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)
	assert.Equal(t, middleware.TokenTypeAccess, claims.TokenType)

	_, err = issuer.RefreshAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenIssuer("other", time.Minute, time.Hour, time.Hour).RefreshAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetToken(t *testing.T) {
	issuer := newIssuer()

	token, err := issuer.ResetToken(3, "hash-v1")
	require.NoError(t, err)

	assert.NoError(t, issuer.VerifyResetToken(token, 3, "hash-v1"))
	assert.ErrorIs(t, issuer.VerifyResetToken(token, 3, "hash-v2"), ErrInvalidToken)
	assert.ErrorIs(t, issuer.VerifyResetToken(token, 4, "hash-v1"), ErrInvalidToken)
	assert.ErrorIs(t, issuer.VerifyResetToken("not-a-token", 3, "hash-v1"), ErrInvalidToken)
}

func TestResetToken_Expiry(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	issuer := newIssuer().WithClock(func() time.Time { return now })

	token, err := issuer.ResetToken(3, "hash")
	require.NoError(t, err)

	now = start.Add(71 * time.Hour)
	assert.NoError(t, issuer.VerifyResetToken(token, 3, "hash"))

	now = start.Add(73 * time.Hour)
	assert.ErrorIs(t, issuer.VerifyResetToken(token, 3, "hash"), ErrInvalidToken)
}

func TestResetTokenIsNotAnAccessToken(t *testing.T) {
	issuer := newIssuer()
	token, err := issuer.ResetToken(3, "hash")
	require.NoError(t, err)

	_, err = middleware.ParseToken(token, issuer.Secret())
	assert.Error(t, err)
}
