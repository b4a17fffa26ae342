package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "listings_portal/internal/adapters/redis"
	"listings_portal/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return redisad.NewWithClient(c), mr
}

func TestCache_SetGetListing(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	id := "42"
	in := domain.Listing{ID: &id, Price: "150.000,00", Type: "STUDIO", Area: "not informed", Photos: []string{"http://x/1.jpg"}}
	require.NoError(t, cache.Set(ctx, "listing:42", in, 60))
	assert.True(t, mr.Exists("portal:listing:42"))

	var out domain.Listing
	ok, err := cache.Get(ctx, "listing:42", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestCache_MissAndExpiry(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	var out []domain.Listing
	ok, err := cache.Get(ctx, "listings:all", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "listings:all", []domain.Listing{{Price: "0,00"}}, 30))
	mr.FastForward(31 * time.Second)

	ok, err = cache.Get(ctx, "listings:all", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Del(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "listing:1", domain.Listing{Price: "1,00"}, 60))
	require.NoError(t, cache.Del(ctx, "listing:1"))
	assert.False(t, mr.Exists("portal:listing:1"))
}
