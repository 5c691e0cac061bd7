package road

import (
	"context"
	"fmt"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

// Cached serves distance matrices from a DistanceCache and only calls the
// wrapped provider when some pair is missing. Route is passed through.
type Cached struct {
	inner ports.RoadProvider
	cache ports.DistanceCache
}

func NewCached(inner ports.RoadProvider, cache ports.DistanceCache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Route(ctx context.Context, coords []domain.Coordinates) (*domain.RoadRoute, error) {
	return c.inner.Route(ctx, coords)
}

func (c *Cached) DistanceMatrix(ctx context.Context, coords []domain.Coordinates) ([][]float64, error) {
	if m, ok := c.lookup(ctx, coords); ok {
		return m, nil
	}

	m, err := c.inner.DistanceMatrix(ctx, coords)
	if err != nil {
		return nil, err
	}
	c.store(ctx, coords, m)
	return m, nil
}

// lookup assembles the matrix from cached rows; ok is false on any miss.
func (c *Cached) lookup(ctx context.Context, coords []domain.Coordinates) ([][]float64, bool) {
	keys := make([]string, len(coords))
	for i, p := range coords {
		keys[i] = p.String()
	}

	n := len(coords)
	out := make([][]float64, n)
	for i := range coords {
		hits, err := c.cache.GetMany(ctx, keys[i], keys)
		if err != nil {
			obs.Logger(ctx).Warn("distance cache read failed", "err", err)
			return nil, false
		}
		out[i] = make([]float64, n)
		for j := range coords {
			if i == j || keys[i] == keys[j] {
				continue
			}
			r, ok := hits[keys[j]]
			if !ok {
				return nil, false
			}
			out[i][j] = r.DistanceMeters / 1000.0
		}
	}
	return out, true
}

func (c *Cached) store(ctx context.Context, coords []domain.Coordinates, m [][]float64) {
	for i, origin := range coords {
		row := make(map[string]ports.DistanceResult, len(coords)-1)
		for j, dest := range coords {
			if i == j {
				continue
			}
			row[dest.String()] = ports.DistanceResult{DistanceMeters: m[i][j] * 1000.0}
		}
		if err := c.cache.PutMany(ctx, origin.String(), row); err != nil {
			obs.Logger(ctx).Warn("distance cache write failed", "err", fmt.Errorf("origin %s: %w", origin, err))
			return
		}
	}
}
