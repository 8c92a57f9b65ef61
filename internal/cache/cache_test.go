package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/epsilon/server/internal/config"
)

// exercise runs the behaviour every Cache must share.
func exercise(t *testing.T, c Cache) {
	ctx := context.Background()

	_, err := c.Get(ctx, "absent")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, c.Set(ctx, "lab-1", []byte(`{"size":4}`)))
	got, err := c.Get(ctx, "lab-1")
	require.NoError(t, err)
	assert.Equal(t, `{"size":4}`, string(got))

	require.NoError(t, c.Set(ctx, "lab-1", []byte(`{"size":5}`)))
	got, err = c.Get(ctx, "lab-1")
	require.NoError(t, err)
	assert.Equal(t, `{"size":5}`, string(got))

	require.NoError(t, c.Delete(ctx, "lab-1"))
	_, err = c.Get(ctx, "lab-1")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, c.Delete(ctx, "never-set"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	defer c.Close()
	exercise(t, c)
}

func TestMemoryCacheEvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, 0)

	require.NoError(t, c.Set(ctx, "a", []byte("a")))
	require.NoError(t, c.Set(ctx, "b", []byte("b")))
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", []byte("c")))

	assert.Equal(t, 2, c.Len())
	_, err = c.Get(ctx, "b")
	assert.True(t, errors.Is(err, ErrMiss))
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(4, 20*time.Millisecond)

	require.NoError(t, c.Set(ctx, "short", []byte("x")))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return errors.Is(err, ErrMiss)
	}, time.Second, 10*time.Millisecond)
}

func TestNewPicksMemoryWithoutRedis(t *testing.T) {
	c, err := New(context.Background(), config.CacheConfig{Size: 4})
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &MemoryCache{}, c)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, config.CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

// Set EPSILON_TEST_REDIS_ADDR to run against a live Redis.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("EPSILON_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis test: EPSILON_TEST_REDIS_ADDR not set")
	}

	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()
	exercise(t, c)
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "epsilon:labyrinth:abc", key("abc"))
}
