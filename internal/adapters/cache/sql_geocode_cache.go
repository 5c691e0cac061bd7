package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
)

// SQLGeocodeCache persists resolved addresses in Postgres. Entries older than
// MaxAge are ignored; zero keeps them forever.
type SQLGeocodeCache struct {
	DB     *sql.DB
	MaxAge time.Duration
}

func NewSQLGeocodeCache(db *sql.DB, maxAge time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, MaxAge: maxAge}
}

func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	keys := uniqueKeys(addresses)
	if len(keys) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT address, lat, lng
	FROM geocode_cache
	WHERE address = ANY($1::text[])
		AND ($2::bigint = 0 OR updated_at > now() - make_interval(secs => $2::bigint));
	`, keys, int64(s.MaxAge/time.Second))
	if err != nil {
		return nil, fmt.Errorf("geocode cache get: query: %w", err)
	}
	defer rows.Close()

	found := make(map[string]domain.Coordinates, len(keys))
	for rows.Next() {
		var (
			addr string
			c    domain.Coordinates
		)
		if err := rows.Scan(&addr, &c.Lat, &c.Lng); err != nil {
			return nil, fmt.Errorf("geocode cache get: scan: %w", err)
		}
		found[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("geocode cache get: rows: %w", err)
	}

	return found, nil
}

// PutMany upserts all mappings in one statement. Invalid coordinates are rejected.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.sql.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	addrs := make([]string, 0, len(results))
	lats := make([]float64, 0, len(results))
	lngs := make([]float64, 0, len(results))
	for addr, c := range results {
		if strings.TrimSpace(addr) == "" {
			return errors.New("geocode cache put: empty address")
		}
		if !c.Valid() {
			return fmt.Errorf("geocode cache put: invalid coordinates for %q", addr)
		}
		addrs = append(addrs, addr)
		lats = append(lats, c.Lat)
		lngs = append(lngs, c.Lng)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lng, updated_at)
	SELECT a, la, ln, now()
	FROM unnest($1::text[], $2::float8[], $3::float8[]) AS t(a, la, ln)
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		updated_at = EXCLUDED.updated_at;
	`, addrs, lats, lngs)
	if err != nil {
		return fmt.Errorf("geocode cache put: upsert %d rows: %w", len(addrs), err)
	}
	return nil
}

// uniqueKeys trims, drops empties and removes duplicates, keeping order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
