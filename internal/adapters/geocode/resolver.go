package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

// Resolver is the Geocoder used by the pipeline. Lookups go cache, static
// table, then the remote geocoder (plain query first, then with the country
// suffix appended). Concurrent lookups of one address share a single call.
type Resolver struct {
	static        *Static
	remote        ports.Geocoder
	cache         ports.GeocodeCache
	countrySuffix string

	group singleflight.Group
}

type ResolverOption func(*Resolver)

// WithRemote sets the geocoder consulted after the static table.
func WithRemote(g ports.Geocoder) ResolverOption {
	return func(r *Resolver) { r.remote = g }
}

// WithCache sets the shared cache consulted first and filled by remote hits.
func WithCache(c ports.GeocodeCache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithCountrySuffix appends ", <suffix>" as a second remote query when the
// address does not already mention it.
func WithCountrySuffix(suffix string) ResolverOption {
	return func(r *Resolver) { r.countrySuffix = strings.TrimSpace(suffix) }
}

func NewResolver(static *Static, opts ...ResolverOption) *Resolver {
	if static == nil {
		static = NewStatic(nil)
	}
	r := &Resolver{static: static}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Resolver) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	key := Normalize(address)
	if key == "" {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, key)
	})
	if err != nil {
		return domain.Coordinates{}, err
	}
	return v.(domain.Coordinates), nil
}

func (r *Resolver) resolve(ctx context.Context, key string) (domain.Coordinates, error) {
	log := obs.Logger(ctx)

	if r.cache != nil {
		hits, err := r.cache.GetMany(ctx, []string{key})
		if err != nil {
			log.Warn("geocode cache read failed", "err", err)
		} else if c, ok := hits[key]; ok {
			return c, nil
		}
	}

	if c, err := r.static.Geocode(ctx, key); err == nil {
		return c, nil
	}

	if r.remote == nil {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	var lastErr error
	for _, q := range r.queries(key) {
		c, err := r.remote.Geocode(ctx, q)
		if err == nil {
			r.store(ctx, key, c)
			return c, nil
		}
		if !errors.Is(err, ports.ErrAddressNotFound) {
			log.Warn("remote geocode failed", "query", q, "err", err)
			lastErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", key, lastErr)
	}
	return domain.Coordinates{}, ports.ErrAddressNotFound
}

func (r *Resolver) queries(key string) []string {
	out := []string{key}
	if r.countrySuffix != "" && !strings.Contains(strings.ToLower(key), strings.ToLower(r.countrySuffix)) {
		out = append(out, key+", "+r.countrySuffix)
	}
	return out
}

func (r *Resolver) store(ctx context.Context, key string, c domain.Coordinates) {
	if r.cache == nil {
		return
	}
	if err := r.cache.PutMany(ctx, map[string]domain.Coordinates{key: c}); err != nil {
		obs.Logger(ctx).Warn("geocode cache write failed", "err", err)
	}
}
