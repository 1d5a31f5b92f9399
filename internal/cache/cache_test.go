package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	withMiniRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{ID: 7, Name: "Ada"}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "Ada", first.Name)

	var second payload
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "Ada", second.Name)
	assert.Equal(t, 1, calls, "second read must be served from Redis")

	InvalidateUser(ctx, 7)
	var third payload
	require.NoError(t, Aside(ctx, UserKey(7), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniRedis(t)
	var dest payload
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		return errors.New("not found")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(UserKey(1)))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	var dest payload
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		dest.ID = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), dest.ID)
}

func TestRevoke_WithoutClient(t *testing.T) {
	SetClient(nil)
	assert.ErrorIs(t, Revoke(context.Background(), "abc", time.Minute), ErrUnavailable)
	assert.NoError(t, Revoke(context.Background(), "abc", 0), "expired tokens need no revocation")
}

func TestRevoke(t *testing.T) {
	mr := withMiniRedis(t)
	ctx := context.Background()

	revoked, err := IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, Revoke(ctx, "abc", time.Minute))
	revoked, err = IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}
