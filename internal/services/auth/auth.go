package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	jwtGo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/ndarenkov/pollwise/internal/lib/jwt"
	"github.com/ndarenkov/pollwise/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	log             *slog.Logger
	userSaver       UserSaver
	userProvider    UserProvider
	tokenStorage    TokenStorage
	secret          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

type UserSaver interface {
	SaveUser(ctx context.Context, id, name, email string, passHash []byte) (string, error)
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (entity.User, error)
	UserByID(ctx context.Context, id string) (entity.User, error)
}

type TokenStorage interface {
	SaveToken(ctx context.Context, userID, token string, ttl time.Duration) error
	IsRefreshTokenValid(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

// NewAuth returns a new instance of the Auth service.
func NewAuth(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokenStorage TokenStorage,
	secret string,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:             log,
		userSaver:       userSaver,
		userProvider:    userProvider,
		tokenStorage:    tokenStorage,
		secret:          secret,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// RegisterNewUser registers a new user and returns the generated user ID.
// If a user with the given email already exists, returns ErrUserExists.
func (auth *Auth) RegisterNewUser(ctx context.Context, name, email, password string) (string, error) {
	const op = "auth.RegisterNewUser"

	log := auth.log.With(slog.String("op", op))
	log.Info("registering user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate hash password", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := auth.userSaver.SaveUser(ctx, uuid.NewString(), name, email, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			log.Warn("user already exists", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered successfully")
	return id, nil
}

// Login checks the credentials and returns an access/refresh token pair plus
// the user ID. Unknown email and wrong password are indistinguishable to the
// caller.
func (auth *Auth) Login(ctx context.Context, email, password string) (string, string, string, error) {
	const op = "auth.Login"

	log := auth.log.With(slog.String("op", op))
	log.Info("attempting to login user")

	user, err := auth.userProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return "", "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Warn("failed to get user", sl.Err(err))
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return "", "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	tokenPair, err := jwt.NewTokenPair(user, auth.secret, auth.accessTokenTTL, auth.refreshTokenTTL)
	if err != nil {
		log.Error("failed to generate token pair", sl.Err(err))
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := auth.tokenStorage.SaveToken(ctx, user.ID, tokenPair.RefreshToken, auth.refreshTokenTTL); err != nil {
		log.Error("failed to save refresh token", sl.Err(err))
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("successfully logged in")
	return tokenPair.AccessToken, tokenPair.RefreshToken, user.ID, nil
}

// RefreshTokens rotates a valid refresh token into a fresh token pair.
func (auth *Auth) RefreshTokens(ctx context.Context, refreshToken string) (string, string, error) {
	const op = "auth.RefreshTokens"

	log := auth.log.With(slog.String("op", op))
	log.Info("refreshing token")

	uid, _, err := auth.parseToken(refreshToken, "refresh")
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := auth.userProvider.UserByID(ctx, uid)
	if err != nil {
		log.Error("user from token not found", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	valid, err := auth.tokenStorage.IsRefreshTokenValid(ctx, user.ID, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if !valid {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if err := auth.tokenStorage.DeleteRefreshToken(ctx, user.ID, refreshToken); err != nil {
		log.Warn("failed to delete refresh token", sl.Err(err))
	}

	newTokens, err := jwt.NewTokenPair(user, auth.secret, auth.accessTokenTTL, auth.refreshTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := auth.tokenStorage.SaveToken(ctx, user.ID, newTokens.RefreshToken, auth.refreshTokenTTL); err != nil {
		log.Error("failed to save new refresh token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("successfully refreshed tokens")
	return newTokens.AccessToken, newTokens.RefreshToken, nil
}

// Logout revokes the refresh token. The access token stays valid until its
// expiry; only the refresh chain is cut.
func (auth *Auth) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.Logout"

	log := auth.log.With(slog.String("op", op))
	log.Info("logout")

	uid, _, err := auth.parseToken(refreshToken, "refresh")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := auth.tokenStorage.DeleteRefreshToken(ctx, uid, refreshToken); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("successfully logged out user")
	return nil
}

// ValidateToken validates an access token and returns the user ID and email
// carried in its claims. Refresh tokens are rejected here; they are only
// consumed by RefreshTokens and Logout.
func (auth *Auth) ValidateToken(ctx context.Context, accessToken string) (string, string, error) {
	const op = "auth.ValidateToken"

	uid, email, err := auth.parseToken(accessToken, "access")
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, email, nil
}

func (auth *Auth) parseToken(tokenString, wantTyp string) (string, string, error) {
	token, err := jwtGo.ParseWithClaims(tokenString, jwtGo.MapClaims{}, func(token *jwtGo.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtGo.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(auth.secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwtGo.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}

	if typ, ok := claims["typ"].(string); !ok || typ != wantTyp {
		return "", "", fmt.Errorf("%w: expected %s token", ErrInvalidToken, wantTyp)
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return "", "", fmt.Errorf("%w: token is expired", ErrInvalidToken)
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", "", fmt.Errorf("%w: uid claim missing", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	return uid, email, nil
}
