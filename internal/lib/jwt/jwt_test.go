package jwt

import (
	"testing"
	"time"

	jwtGo "github.com/golang-jwt/jwt/v5"
	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenPair(t *testing.T) {
	const secret = "test-secret"

	user := entity.User{
		ID:    "user-1",
		Name:  "Test User",
		Email: "user@example.com",
	}

	pair, err := NewTokenPair(user, secret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	parse := func(tokenString string) jwtGo.MapClaims {
		parsed, err := jwtGo.Parse(tokenString, func(token *jwtGo.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)
		return parsed.Claims.(jwtGo.MapClaims)
	}

	access := parse(pair.AccessToken)
	assert.Equal(t, "user-1", access["uid"])
	assert.Equal(t, "user@example.com", access["email"])
	assert.Equal(t, "access", access["typ"])

	refresh := parse(pair.RefreshToken)
	assert.Equal(t, "user-1", refresh["uid"])
	assert.Equal(t, "refresh", refresh["typ"])
}

func TestNewTokenPair_RejectsWrongSecret(t *testing.T) {
	pair, err := NewTokenPair(entity.User{ID: "user-1"}, "secret-a", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = jwtGo.Parse(pair.AccessToken, func(token *jwtGo.Token) (interface{}, error) {
		return []byte("secret-b"), nil
	})
	require.Error(t, err)
}
