package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client), mr
}

func TestGet_MissingKey(t *testing.T) {
	c, _ := newTestCache(t)
	v, ok, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestPutGet_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	require.NoError(t, c.Put(context.Background(), "k", "v", time.Minute))

	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestPut_EntryExpires(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Put(context.Background(), "k", "v", time.Second))

	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetNX_OnlyFirstCallerWins(t *testing.T) {
	c, _ := newTestCache(t)

	first, err := c.SetNX(context.Background(), "cooldown:7900", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.SetNX(context.Background(), "cooldown:7900", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestSetNX_WinsAgainAfterExpiry(t *testing.T) {
	c, mr := newTestCache(t)

	first, err := c.SetNX(context.Background(), "cooldown:7900", "1", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	mr.FastForward(5*time.Minute + time.Second)

	again, err := c.SetNX(context.Background(), "cooldown:7900", "1", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}
