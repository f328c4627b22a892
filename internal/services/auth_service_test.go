package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
	"github.com/adanyl0v/taskboard/internal/storage/memory"
)

func newAuthService(store services.Store) services.AuthService {
	return services.NewAuthService(
		zerolog.Nop(),
		store,
		services.NewPasswordHasher(testHashParams),
		newTestTokenManager(),
	)
}

func TestAuthService_RegisterIssuesTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	auth := newAuthService(store)

	res, err := auth.Register(ctx, services.RegisterParams{
		Email: "Alice@Example.com", Password: "secret", Username: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.RefreshTokenExpiresAt.After(res.AccessTokenExpiresAt))

	stored, err := store.Users().GetUserByID(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
	assert.NotEqual(t, "secret", stored.Password)

	user, err := auth.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	auth := newAuthService(memory.New())

	_, err := auth.Register(context.Background(), services.RegisterParams{Email: "invalid-email", Password: "secret"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = auth.Register(context.Background(), services.RegisterParams{Email: "a@example.com"})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	auth := newAuthService(store)

	_, err := auth.Register(ctx, services.RegisterParams{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = auth.Register(ctx, services.RegisterParams{Email: "a@example.com", Password: "other"})
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)
	assert.ErrorIs(t, err, services.ErrConflict)

	users, err := store.Users().ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	auth := newAuthService(memory.New())

	registered, err := auth.Register(ctx, services.RegisterParams{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	res, err := auth.Login(ctx, services.LoginParams{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)
	assert.NotEqual(t, registered.RefreshToken, res.RefreshToken)

	_, err = auth.Login(ctx, services.LoginParams{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, services.ErrUserPasswordMismatch)

	_, err = auth.Login(ctx, services.LoginParams{Email: "nobody@example.com", Password: "secret"})
	assert.ErrorIs(t, err, services.ErrUserPasswordMismatch)
}

func TestAuthService_LoginRehashesLegacyPassword(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	auth := newAuthService(store)

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users().InsertUser(ctx, &models.User{
		ID: "legacy", Email: "old@example.com", Password: string(legacy), CreatedAt: time.Now(),
	}))

	_, err = auth.Login(ctx, services.LoginParams{Email: "old@example.com", Password: "secret"})
	require.NoError(t, err)

	stored, err := store.Users().GetUserByID(ctx, "legacy")
	require.NoError(t, err)
	assert.Contains(t, stored.Password, "$argon2id$")

	_, err = auth.Login(ctx, services.LoginParams{Email: "old@example.com", Password: "secret"})
	require.NoError(t, err)
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	auth := newAuthService(memory.New())

	first, err := auth.Register(ctx, services.RegisterParams{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = auth.Refresh(ctx, first.AccessToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	second, err := auth.Login(ctx, services.LoginParams{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, services.ErrRefreshTokenRevoked)

	require.NoError(t, auth.Logout(ctx, second.User.ID))
	_, err = auth.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, services.ErrRefreshTokenRevoked)

	_, err = auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAuthService_AuthenticateDeletedUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	auth := newAuthService(store)

	res, err := auth.Register(ctx, services.RegisterParams{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, store.Users().DeleteUser(ctx, res.User.ID))

	_, err = auth.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}
