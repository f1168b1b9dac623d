package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value int `json:"value"`
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return payload{Value: calls}, nil
	}

	key, err := c.BuildKey(ctx, "org:1", "tb", "1", "3")
	require.NoError(t, err)
	require.Equal(t, "tb:1:3:v1", key)

	var got payload
	hit, err := c.FetchJSON(ctx, key, &got, loader)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, got.Value)

	hit, err = c.FetchJSON(ctx, key, &got, loader)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, calls)
	require.True(t, mr.Exists(key))
	require.Equal(t, time.Minute, mr.TTL(key))

	ver, err := c.Bump(ctx, "org:1")
	require.NoError(t, err)
	require.Equal(t, int64(2), ver)
	key, err = c.BuildKey(ctx, "org:1", "tb", "1", "3")
	require.NoError(t, err)
	require.Equal(t, "tb:1:3:v2", key)
	_, err = c.FetchJSON(ctx, key, &got, loader)
	require.NoError(t, err)
	require.Equal(t, 2, got.Value)

	other, err := c.BuildKey(ctx, "org:2", "tb", "2", "3")
	require.NoError(t, err)
	require.Equal(t, "tb:2:3:v1", other, "scopes version independently")
}

func TestNilClientCallsLoaderEveryTime(t *testing.T) {
	c := New(nil, time.Minute)
	ctx := context.Background()
	key, err := c.BuildKey(ctx, "org:1", "tb")
	require.NoError(t, err)
	require.Equal(t, "tb", key)

	var got payload
	for i := 0; i < 2; i++ {
		hit, err := c.FetchJSON(ctx, key, &got, func(context.Context) (any, error) { return payload{Value: 5}, nil })
		require.NoError(t, err)
		require.False(t, hit)
	}
	_, err = c.Bump(ctx, "org:1")
	require.NoError(t, err)
}

func TestLoaderErrorIsNotCached(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	boom := errors.New("db down")
	var got payload
	_, err := c.FetchJSON(ctx, "k", &got, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("k"))
}
