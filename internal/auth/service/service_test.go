package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	"github.com/societyos/upkeep/internal/auth/repository"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.Session{}))

	repo, sessionRepo := repository.New(db)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	svc := New(ServiceParam{
		Log:         zap.NewNop(),
		Config:      config.Config{SessionTTLHours: 72},
		Repo:        repo,
		SessionRepo: sessionRepo,
		GenID:       node,
		Clock:       clk,
	})
	return svc, clk
}

func createOwner(t *testing.T, svc authdomain.Service, email string) *authdomain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:       email,
		Password:    "correct-password",
		DisplayName: "Test Owner",
		Role:        authdomain.RoleOwner,
	})
	require.NoError(t, err)
	return user
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	createOwner(t, svc, "alice@example.com")

	_, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	user := createOwner(t, svc, "alice@example.com")

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, clk := newTestService(t)
	createOwner(t, svc, "alice@example.com")

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	require.NoError(t, err)

	clk.Advance(73 * time.Hour)

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	assert.ErrorIs(t, err, authdomain.ErrSessionExpired)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	createOwner(t, svc, "alice@example.com")

	_, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "another-password",
		Role:     authdomain.RoleOwner,
	})
	assert.ErrorIs(t, err, authdomain.ErrUserExists)
}

func TestCreateResidentRequiresOrganization(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "bob@example.com",
		Password: "strong-password",
		Role:     authdomain.RoleResident,
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidRole)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _ := newTestService(t)
	user := createOwner(t, svc, "alice@example.com")

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "correct-password", "brand-new-password"))

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	assert.Error(t, err)

	_, err = svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "brand-new-password",
	})
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newTestService(t)
	createOwner(t, svc, "alice@example.com")

	token, err := svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = svc.ResetPassword(context.Background(), "alice@example.com", "bogus-token", "reset-password")
	assert.ErrorIs(t, err, authdomain.ErrInvalidResetToken)

	require.NoError(t, svc.ResetPassword(context.Background(), "alice@example.com", token, "reset-password"))

	_, err = svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "reset-password",
	})
	assert.NoError(t, err)
}

func TestResetTokenExpires(t *testing.T) {
	svc, clk := newTestService(t)
	createOwner(t, svc, "alice@example.com")

	token, err := svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)

	err = svc.ResetPassword(context.Background(), "alice@example.com", token, "reset-password")
	assert.ErrorIs(t, err, authdomain.ErrInvalidResetToken)
}
