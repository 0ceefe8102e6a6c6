package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_202610/internal/middleware"
	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
)

func newTestAuthService(t *testing.T) (*AuthService, repository.UserRepository, *middleware.JWTManager) {
	db := setupStoreTestDB(t)
	users := repository.NewUserRepository(db)
	jwt := middleware.NewJWTManager(middleware.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "storefront-test",
	})
	return NewAuthService(users, jwt), users, jwt
}

func TestAuthService_EnsureAdminAndLogin(t *testing.T) {
	svc, users, jwt := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "s3cret"))
	// 重复调用不报错也不重复创建
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "other"))

	pair, err := svc.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, model.RoleAdmin, pair.User.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, time.Minute)

	claims, err := jwt.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, middleware.TokenTypeAccess, claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	stored, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.NotEqual(t, "s3cret", stored.Password, "密码以 bcrypt 哈希存储")
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "s3cret"))

	_, err := svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, u.ID, false))
	_, err = svc.Login(ctx, "admin", "s3cret")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "s3cret"))

	pair, err := svc.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "Access Token 不能用于刷新")

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Register(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "amit", "pw", "amit@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, u.Role)

	_, err = svc.Register(ctx, "amit", "pw", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
