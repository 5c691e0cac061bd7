package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-route-optimizer/internal/domain"
)

func newRedisCache(t *testing.T) (*RedisGeocodeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGeocodeCache(client, "geocode:", time.Hour), mr
}

func TestRedisGeocodeCache_RoundTrip(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	saddar := domain.Coordinates{Lat: 25.3782, Lng: 68.3642}
	kotri := domain.Coordinates{Lat: 25.3606, Lng: 68.3094}
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"saddar": saddar,
		"kotri":  kotri,
	}))

	got, err := c.GetMany(ctx, []string{"saddar", " kotri ", "saddar", "unknown", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"saddar": saddar, "kotri": kotri}, got)

	assert.True(t, mr.Exists("geocode:saddar"))
	assert.Equal(t, time.Hour, mr.TTL("geocode:saddar"))
}

func TestRedisGeocodeCache_Expiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"a": {Lat: 1, Lng: 2}}))
	mr.FastForward(2 * time.Hour)

	got, err := c.GetMany(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisGeocodeCache_SkipsMalformedEntries(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set("geocode:bad", "not-a-coordinate"))
	require.NoError(t, mr.Set("geocode:far", "200,10"))

	got, err := c.GetMany(context.Background(), []string{"bad", "far"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisGeocodeCache_EmptyInputs(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	got, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, nil))
	assert.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{" ": {}}))
}

func TestRedisGeocodeCache_ServerDown(t *testing.T) {
	c, mr := newRedisCache(t)
	mr.Close()

	_, err := c.GetMany(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestCoordsCodec(t *testing.T) {
	in := domain.Coordinates{Lat: -33.8688, Lng: 151.2093}
	out, err := decodeCoords(encodeCoords(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
