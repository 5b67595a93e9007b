package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/ndarenkov/pollwise/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestListingCache_RoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewListingCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	views := []entity.PollView{
		{
			Poll: entity.Poll{ID: 1, Question: "Best language?"},
			Options: []entity.OptionView{
				{Option: entity.Option{ID: 10, PollID: 1, Text: "Go"}, Votes: 2},
				{Option: entity.Option{ID: 11, PollID: 1, Text: "Rust"}, Votes: 0},
			},
		},
	}

	require.NoError(t, cache.Set(ctx, views))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, views, got)
}

func TestListingCache_Invalidate(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewListingCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []entity.PollView{{Poll: entity.Poll{ID: 1}}}))
	require.NoError(t, cache.Invalidate(ctx))

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidating an already-empty cache is not an error.
	require.NoError(t, cache.Invalidate(ctx))
}

func TestListingCache_Expiry(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewListingCache(client, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []entity.PollView{{Poll: entity.Poll{ID: 1}}}))

	mr.FastForward(2 * time.Second)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListingCache_CorruptPayloadBehavesLikeMiss(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewListingCache(client, time.Minute)

	require.NoError(t, mr.Set("polls:listing", "{not json"))

	_, ok, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore_SaveAndValidate(t *testing.T) {
	_, client := newTestClient(t)
	store := NewTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(ctx, "user-1", "token-a", time.Minute))

	valid, err := store.IsRefreshTokenValid(ctx, "user-1", "token-a")
	require.NoError(t, err)
	assert.True(t, valid)

	// A token issued to one user is not valid for another.
	valid, err = store.IsRefreshTokenValid(ctx, "user-2", "token-a")
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = store.IsRefreshTokenValid(ctx, "user-1", "token-unknown")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestTokenStore_Delete(t *testing.T) {
	_, client := newTestClient(t)
	store := NewTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(ctx, "user-1", "token-a", time.Minute))
	require.NoError(t, store.DeleteRefreshToken(ctx, "user-1", "token-a"))

	valid, err := store.IsRefreshTokenValid(ctx, "user-1", "token-a")
	require.NoError(t, err)
	assert.False(t, valid)

	err = store.DeleteRefreshToken(ctx, "user-1", "token-a")
	require.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStore_Expiry(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveToken(ctx, "user-1", "token-a", time.Second))

	mr.FastForward(2 * time.Second)

	valid, err := store.IsRefreshTokenValid(ctx, "user-1", "token-a")
	require.NoError(t, err)
	assert.False(t, valid)
}
