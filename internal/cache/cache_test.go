package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travel-vibes/internal/cache"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type imageEntry struct {
	URL string `json:"url"`
}

func TestCache_SetAndGet(t *testing.T) {
	client, _ := newRedis(t)
	c := cache.NewCache(client, "image:", time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Paris", imageEntry{URL: "https://img/paris.jpg"}))

	var got imageEntry
	found, err := c.Get(ctx, "Paris", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://img/paris.jpg", got.URL)
}

func TestCache_Get_Miss(t *testing.T) {
	client, _ := newRedis(t)
	c := cache.NewCache(client, "image:", time.Hour)

	var got imageEntry
	found, err := c.Get(context.Background(), "nowhere", &got)

	require.NoError(t, err)
	assert.False(t, found, "cache miss is not an error")
}

func TestCache_KeyIsLowercasedAndPrefixed(t *testing.T) {
	client, mr := newRedis(t)
	c := cache.NewCache(client, "geocode:", time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "  PARIS ", imageEntry{URL: "x"}))

	assert.True(t, mr.Exists("geocode:paris"))
	var got imageEntry
	found, err := c.Get(ctx, "paris", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCache_TTL(t *testing.T) {
	client, mr := newRedis(t)
	c := cache.NewCache(client, "image:", 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Paris", imageEntry{URL: "x"}))
	assert.Equal(t, time.Hour, mr.TTL("image:paris"), "zero TTL falls back to one hour")

	mr.FastForward(2 * time.Hour)

	var got imageEntry
	found, err := c.Get(ctx, "Paris", &got)
	require.NoError(t, err)
	assert.False(t, found, "entry should be expired after TTL")
}

func TestCache_Get_CorruptValue(t *testing.T) {
	client, mr := newRedis(t)
	c := cache.NewCache(client, "image:", time.Hour)
	require.NoError(t, mr.Set("image:paris", "{not json"))

	var got imageEntry
	_, err := c.Get(context.Background(), "Paris", &got)

	require.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_OK(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr()+"/0")

	require.NoError(t, err)
	_ = client.Close()
}
