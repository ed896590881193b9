package utils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetRedisClient(nil) })
	return mr
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	mr := cacheRedis(t)

	CacheSetBytes("cache:test:a", []byte("payload"), 20*time.Second)

	got, ok := CacheGetBytes("cache:test:a")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	mr.FastForward(21 * time.Second)
	_, ok = CacheGetBytes("cache:test:a")
	assert.False(t, ok)
}

func TestCacheMissingKey(t *testing.T) {
	cacheRedis(t)

	_, ok := CacheGetBytes("cache:test:absent")
	assert.False(t, ok)
}

func TestInvalidateByPrefixDeletesOnlyMatches(t *testing.T) {
	cacheRedis(t)

	CacheSetBytes("cache:index:page=1", []byte("one"), time.Minute)
	CacheSetBytes("cache:index:page=2", []byte("two"), time.Minute)
	CacheSetBytes("cache:other:key", []byte("keep"), time.Minute)

	InvalidateByPrefix("cache:index:")

	_, ok := CacheGetBytes("cache:index:page=1")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:index:page=2")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:other:key")
	assert.True(t, ok)
}

func TestCacheWithoutRedisIsNoOp(t *testing.T) {
	SetRedisClient(nil)

	CacheSetBytes("cache:test:a", []byte("payload"), time.Minute)
	_, ok := CacheGetBytes("cache:test:a")
	assert.False(t, ok)
}
