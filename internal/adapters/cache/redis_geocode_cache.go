package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
)

// RedisGeocodeCache shares resolved addresses across server instances.
// Values are stored as "lat,lng" strings with a TTL.
type RedisGeocodeCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisGeocodeCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisGeocodeCache) key(address string) string {
	return c.prefix + address
}

func (c *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.GetMany")(&err)

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, len(uniq))
	for i, a := range uniq {
		keys[i] = c.key(a)
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		coords, err := decodeCoords(s)
		if err != nil {
			obs.Logger(ctx).Warn("dropping malformed geocode cache entry", "key", keys[i], "err", err)
			continue
		}
		out[uniq[i]] = coords
	}

	return out, nil
}

func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.redis.PutMany")(&err)

	if len(results) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for addr, coords := range results {
		if strings.TrimSpace(addr) == "" {
			return errors.New("insert geocode cache: empty address key")
		}
		pipe.Set(ctx, c.key(addr), encodeCoords(coords), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: exec: %w", err)
	}
	return nil
}

func encodeCoords(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

func decodeCoords(s string) (domain.Coordinates, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("missing separator in %q", s)
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lat: %w", err)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lng: %w", err)
	}
	c := domain.Coordinates{Lat: la, Lng: ln}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("out of range coordinates %q", s)
	}
	return c, nil
}
