package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	jwtGo "github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/ndarenkov/pollwise/internal/services/auth/mocks"
	"github.com/ndarenkov/pollwise/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	auth         *Auth
	userSaver    *mocks.MockUserSaver
	userProvider *mocks.MockUserProvider
	tokenStorage *mocks.MockTokenStorage
}

func newTestEnv(t *testing.T) *testEnv {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	userSaver := mocks.NewMockUserSaver(ctrl)
	userProvider := mocks.NewMockUserProvider(ctrl)
	tokenStorage := mocks.NewMockTokenStorage(ctrl)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		auth:         NewAuth(log, userSaver, userProvider, tokenStorage, testSecret, time.Minute, time.Hour),
		userSaver:    userSaver,
		userProvider: userProvider,
		tokenStorage: tokenStorage,
	}
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return hash
}

func TestRegisterNewUser_Success(t *testing.T) {
	env := newTestEnv(t)

	name := gofakeit.Name()
	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)

	env.userSaver.EXPECT().
		SaveUser(gomock.Any(), gomock.Any(), name, email, gomock.Any()).
		DoAndReturn(func(_ context.Context, id, _, _ string, passHash []byte) (string, error) {
			// The service must never hand the plaintext to storage.
			require.NoError(t, bcrypt.CompareHashAndPassword(passHash, []byte(password)))
			return id, nil
		})

	userID, err := env.auth.RegisterNewUser(context.Background(), name, email, password)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
}

func TestRegisterNewUser_AlreadyExists(t *testing.T) {
	env := newTestEnv(t)

	env.userSaver.EXPECT().
		SaveUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", storage.ErrUserAlreadyExists)

	_, err := env.auth.RegisterNewUser(context.Background(), gofakeit.Name(), gofakeit.Email(), "password123")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	password := gofakeit.Password(true, true, true, false, false, 12)
	user := entity.User{
		ID:       gofakeit.UUID(),
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		PassHash: mustHash(t, password),
	}

	env.userProvider.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	env.tokenStorage.EXPECT().SaveToken(gomock.Any(), user.ID, gomock.Any(), time.Hour).Return(nil)

	accessToken, refreshToken, userID, err := env.auth.Login(context.Background(), user.Email, password)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.Equal(t, user.ID, userID)

	parsed, err := jwtGo.Parse(accessToken, func(token *jwtGo.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwtGo.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["uid"])
	assert.Equal(t, user.Email, claims["email"])
	assert.Equal(t, "access", claims["typ"])
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	user := entity.User{
		ID:       gofakeit.UUID(),
		Email:    gofakeit.Email(),
		PassHash: mustHash(t, "correct-password"),
	}

	env.userProvider.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	_, _, _, err := env.auth.Login(context.Background(), user.Email, "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	email := gofakeit.Email()
	env.userProvider.EXPECT().UserByEmail(gomock.Any(), email).Return(entity.User{}, storage.ErrUserNotFound)

	_, _, _, err := env.auth.Login(context.Background(), email, "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_AcceptsAccessRejectsRefresh(t *testing.T) {
	env := newTestEnv(t)

	password := "password-123"
	user := entity.User{
		ID:       gofakeit.UUID(),
		Email:    gofakeit.Email(),
		PassHash: mustHash(t, password),
	}

	env.userProvider.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	env.tokenStorage.EXPECT().SaveToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)

	accessToken, refreshToken, _, err := env.auth.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	uid, email, err := env.auth.ValidateToken(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)
	assert.Equal(t, user.Email, email)

	_, _, err = env.auth.ValidateToken(context.Background(), refreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.ValidateToken(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_RotatesPair(t *testing.T) {
	env := newTestEnv(t)

	password := "password-123"
	user := entity.User{
		ID:       gofakeit.UUID(),
		Email:    gofakeit.Email(),
		PassHash: mustHash(t, password),
	}

	env.userProvider.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	env.tokenStorage.EXPECT().SaveToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)

	_, refreshToken, _, err := env.auth.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	env.userProvider.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	env.tokenStorage.EXPECT().IsRefreshTokenValid(gomock.Any(), user.ID, refreshToken).Return(true, nil)
	env.tokenStorage.EXPECT().DeleteRefreshToken(gomock.Any(), user.ID, refreshToken).Return(nil)
	env.tokenStorage.EXPECT().SaveToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)

	newAccess, newRefresh, err := env.auth.RefreshTokens(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
}

func TestRefreshTokens_RevokedToken(t *testing.T) {
	env := newTestEnv(t)

	password := "password-123"
	user := entity.User{
		ID:       gofakeit.UUID(),
		Email:    gofakeit.Email(),
		PassHash: mustHash(t, password),
	}

	env.userProvider.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	env.tokenStorage.EXPECT().SaveToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)

	_, refreshToken, _, err := env.auth.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	env.userProvider.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	env.tokenStorage.EXPECT().IsRefreshTokenValid(gomock.Any(), user.ID, refreshToken).Return(false, nil)

	_, _, err = env.auth.RefreshTokens(context.Background(), refreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	password := "password-123"
	user := entity.User{
		ID:       gofakeit.UUID(),
		Email:    gofakeit.Email(),
		PassHash: mustHash(t, password),
	}

	env.userProvider.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	env.tokenStorage.EXPECT().SaveToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)

	_, refreshToken, _, err := env.auth.Login(context.Background(), user.Email, password)
	require.NoError(t, err)

	env.tokenStorage.EXPECT().
		DeleteRefreshToken(gomock.Any(), user.ID, refreshToken).
		Return(storage.ErrTokenNotFound)

	err = env.auth.Logout(context.Background(), refreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}
