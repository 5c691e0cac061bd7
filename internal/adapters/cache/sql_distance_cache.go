package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

// SQLDistanceCache keeps road distance matrix rows in Postgres, one row per
// origin/destination pair. Rows older than MaxAge are treated as misses.
type SQLDistanceCache struct {
	DB     *sql.DB
	MaxAge time.Duration
}

func NewSQLDistanceCache(db *sql.DB, maxAge time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, MaxAge: maxAge}
}

func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("distance cache get: empty origin")
	}

	dests := uniqueKeys(destinations)
	if len(dests) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = $1
		AND destination = ANY($2::text[])
		AND ($3::bigint = 0 OR fetched_at > now() - make_interval(secs => $3::bigint));
	`, origin, dests, int64(s.MaxAge/time.Second))
	if err != nil {
		return nil, fmt.Errorf("distance cache get: query: %w", err)
	}
	defer rows.Close()

	found := make(map[string]ports.DistanceResult, len(dests))
	for rows.Next() {
		var (
			dest string
			res  ports.DistanceResult
		)
		if err := rows.Scan(&dest, &res.DistanceMeters, &res.DurationSeconds); err != nil {
			return nil, fmt.Errorf("distance cache get: scan: %w", err)
		}
		found[dest] = res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distance cache get: rows: %w", err)
	}

	return found, nil
}

// PutMany upserts one origin's row in a single statement.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.cache.sql.PutMany")(&err)

	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return errors.New("distance cache put: empty origin")
	}
	if len(results) == 0 {
		return nil
	}

	dests := make([]string, 0, len(results))
	meters := make([]float64, 0, len(results))
	seconds := make([]float64, 0, len(results))
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("distance cache put: empty destination")
		}
		dests = append(dests, dest)
		meters = append(meters, r.DistanceMeters)
		seconds = append(seconds, r.DurationSeconds)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, fetched_at)
	SELECT $1, d, m, sec, now()
	FROM unnest($2::text[], $3::float8[], $4::float8[]) AS t(d, m, sec)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		fetched_at = EXCLUDED.fetched_at;
	`, origin, dests, meters, seconds)
	if err != nil {
		return fmt.Errorf("distance cache put origin=%q: %w", origin, err)
	}
	return nil
}
