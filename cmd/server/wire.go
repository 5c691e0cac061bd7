package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"delivery-route-optimizer/internal/adapters/cache"
	"delivery-route-optimizer/internal/adapters/explain"
	"delivery-route-optimizer/internal/adapters/geocode"
	"delivery-route-optimizer/internal/adapters/history"
	"delivery-route-optimizer/internal/adapters/road"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/cost"
	"delivery-route-optimizer/internal/platform/httpx"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/solver"
)

func newRedis(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (redis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Redis.Addr)
	}
	logger.Info("redis connected", slog.String("addr", cfg.Redis.Addr))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// newGeocodeCache prefers Redis, then Postgres, then process memory.
func newGeocodeCache(cfg *config.Config, rdb redis.UniversalClient, conn *sql.DB) ports.GeocodeCache {
	switch {
	case rdb != nil:
		return cache.NewRedisGeocodeCache(rdb, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	case conn != nil:
		return cache.NewSQLGeocodeCache(conn, cfg.Postgres.CacheTTL)
	default:
		return cache.NewMemoryGeocodeCache()
	}
}

// newDistanceCache returns nil without Postgres; matrices are then always fetched.
func newDistanceCache(cfg *config.Config, conn *sql.DB) ports.DistanceCache {
	if conn == nil {
		return nil
	}
	return cache.NewSQLDistanceCache(conn, cfg.Postgres.CacheTTL)
}

func newGeocoder(cfg *config.Config, c ports.GeocodeCache) (ports.Geocoder, error) {
	g := cfg.Geocoder
	opts := []geocode.ResolverOption{
		geocode.WithCache(c),
		geocode.WithCountrySuffix(g.CountrySuffix),
	}

	client := httpx.New(g.Timeout)
	client.Attempts = g.Attempts

	switch g.Provider {
	case "nominatim":
		var limit rate.Limit
		if g.MinInterval > 0 {
			limit = rate.Every(g.MinInterval)
		}
		opts = append(opts, geocode.WithRemote(geocode.NewNominatim(client, g.BaseURL, g.UserAgent, limit)))
	case "ors":
		if g.APIKey == "" {
			return nil, errors.New("geocoder: ors provider requires an api key")
		}
		opts = append(opts, geocode.WithRemote(geocode.NewORS(client, g.BaseURL, g.APIKey)))
	}

	return geocode.NewResolver(nil, opts...), nil
}

func newRoad(cfg *config.Config, dc ports.DistanceCache) ports.RoadProvider {
	r := cfg.Road
	if r.Provider != "osrm" {
		return nil
	}

	osrm := road.NewOSRM(httpx.New(r.Timeout), r.BaseURL, r.Profile)
	if dc == nil {
		return osrm
	}
	return road.NewCached(osrm, dc)
}

func newExplainer(cfg *config.Config, logger *slog.Logger) ports.Explainer {
	e := cfg.Explainer
	client := httpx.New(e.Timeout)

	var explainer ports.Explainer
	switch e.Provider {
	case "openrouter":
		if p := explain.NewOpenRouter(client, e.BaseURL, e.APIKey, e.Model); p != nil {
			explainer = p
		}
	case "gemini":
		if p := explain.NewGemini(client, e.BaseURL, e.APIKey, e.Model); p != nil {
			explainer = p
		}
	}

	if explainer == nil && e.Provider != "none" {
		logger.Warn("explainer disabled: missing api key", slog.String("provider", e.Provider))
	}
	return explainer
}

func newHistory(conn *sql.DB) ports.HistoryStore {
	if conn == nil {
		return history.NewMemoryStore()
	}
	return history.NewPostgresStore(conn)
}

func newCostModel(cfg *config.Config, logger *slog.Logger) (*cost.Model, error) {
	start := time.Now()
	model, err := cost.Train(context.Background(), cfg.Cost)
	if err != nil {
		return nil, errors.Wrap(err, "train cost model")
	}
	logger.Info("cost model trained",
		slog.Int("trees", cfg.Cost.Trees),
		slog.Float64("test_r2", model.TestR2),
		slog.Duration("took", time.Since(start)))
	return model, nil
}

func solverOptions(c config.SolverConfig) solver.Options {
	return solver.Options{
		TimeLimit:     c.TimeLimit,
		DropPenalty:   c.DropPenalty,
		Scale:         c.Scale,
		Metaheuristic: c.Metaheuristic,
		MaxStall:      c.MaxStall,
	}
}
