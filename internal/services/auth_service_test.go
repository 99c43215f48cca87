package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/propdesk/leads-api/internal/config"
	"github.com/propdesk/leads-api/internal/models"
	"github.com/propdesk/leads-api/internal/repository"
)

func newTestAuthService(t *testing.T) (*AuthService, *UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1}
	userSvc := NewUserService(repository.NewUserRepository(db))
	authSvc := NewAuthService(repository.NewUserRepository(db), repository.NewRefreshTokenRepository(db), cfg)
	return authSvc, userSvc, db
}

func registerAgent(t *testing.T, userSvc *UserService, email string) *models.User {
	t.Helper()
	user, err := userSvc.Create(context.Background(), &CreateUserInput{
		Email:    email,
		Name:     "Agent",
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	authSvc, userSvc, _ := newTestAuthService(t)
	ctx := context.Background()
	registerAgent(t, userSvc, "agent@example.com")

	result, err := authSvc.Login(ctx, "agent@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "agent@example.com", result.User.Email)

	// A refresh rotates the token
	refreshed, err := authSvc.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, result.RefreshToken, refreshed.RefreshToken)

	// The spent token no longer works
	_, err = authSvc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	authSvc, userSvc, _ := newTestAuthService(t)
	registerAgent(t, userSvc, "agent@example.com")

	_, err := authSvc.Login(context.Background(), "agent@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authSvc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ExpiredRefreshToken(t *testing.T) {
	authSvc, userSvc, db := newTestAuthService(t)
	ctx := context.Background()
	user := registerAgent(t, userSvc, "agent@example.com")

	expired := time.Now().Add(-time.Hour)
	rt := &models.RefreshToken{UserID: user.ID, Token: "stale-token", ExpiresAt: &expired}
	require.NoError(t, db.Create(rt).Error)

	_, err := authSvc.Refresh(ctx, "stale-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	authSvc, userSvc, _ := newTestAuthService(t)
	ctx := context.Background()
	registerAgent(t, userSvc, "agent@example.com")

	result, err := authSvc.Login(ctx, "agent@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, result.RefreshToken))
	_, err = authSvc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserService_CreateAndDuplicates(t *testing.T) {
	_, userSvc, _ := newTestAuthService(t)
	ctx := context.Background()

	user := registerAgent(t, userSvc, "agent@example.com")
	assert.Equal(t, models.RoleUser, user.Role, "role defaults to user")

	_, err := userSvc.Create(ctx, &CreateUserInput{Email: "agent@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = userSvc.Create(ctx, &CreateUserInput{Email: "short@example.com", Password: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Password must be at least 8 characters", verr.Fields["password"])
}

func TestUserService_EnsureAdminIsIdempotent(t *testing.T) {
	_, userSvc, db := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, userSvc.EnsureAdmin(ctx, "admin@example.com", "password123"))
	require.NoError(t, userSvc.EnsureAdmin(ctx, "admin@example.com", "password123"))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "admin@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var admin models.User
	require.NoError(t, db.First(&admin, "email = ?", "admin@example.com").Error)
	assert.True(t, admin.IsAdmin())
}
