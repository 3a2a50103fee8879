package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/auth"
)

func newAuthTest(t *testing.T) (*authServiceImpl, *fakeTokens, *fixture) {
	t.Helper()
	f := newFixture()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	f.users.users[5].Password = hash
	f.users.users[6].Password = hash
	f.users.users[6].IsActive = false

	tokens := &fakeTokens{tokens: map[string]*models.RefreshToken{}}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "mentorhub.test",
	})
	svc := NewAuthService(f.users, tokens, jwtService, f.logger).(*authServiceImpl)
	return svc, tokens, f
}

func TestLogin(t *testing.T) {
	svc, tokens, _ := newAuthTest(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@mentorhub.test", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token.AccessToken)
	assert.Equal(t, "Bearer", res.Token.TokenType)
	assert.Equal(t, models.RoleStudent, res.User.RoleType)
	assert.Contains(t, tokens.tokens, res.Token.RefreshToken)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@mentorhub.test", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@mentorhub.test", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "alan@mentorhub.test", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshToken_RotatesOnce(t *testing.T) {
	svc, tokens, _ := newAuthTest(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@mentorhub.test", Password: "secret123"})
	require.NoError(t, err)
	old := login.Token.RefreshToken

	fresh, err := svc.RefreshToken(ctx, old)
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh.RefreshToken)
	assert.True(t, tokens.tokens[old].IsRevoked)

	_, err = svc.RefreshToken(ctx, old)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	tokens.tokens[fresh.RefreshToken].ExpiryDate = time.Now().Add(-time.Minute)
	_, err = svc.RefreshToken(ctx, fresh.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}
