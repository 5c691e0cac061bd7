package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"delivery-route-optimizer/internal/api"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/cost"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/risk"
	"delivery-route-optimizer/internal/services"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

// main is the application composition root. It wires concrete adapters
// behind ports and runs the HTTP server until a termination signal.
func main() {
	fx.New(
		injectInfra(),
		injectAdapters(),
		injectDomain(),
		fx.Provide(newHTTPServer),
		fx.Invoke(startServer),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		newLogger,
		newDB,
		newRedis,
	)
}

func injectAdapters() fx.Option {
	return fx.Provide(
		newGeocodeCache,
		newDistanceCache,
		newGeocoder,
		newRoad,
		newExplainer,
		newHistory,
	)
}

func injectDomain() fx.Option {
	return fx.Provide(
		newRiskField,
		newCostModel,
		newOptimizer,
	)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := obs.NewLogger(cfg.Env.Log, os.Stdout)
	if err != nil {
		return nil, err
	}
	logger = logger.With(slog.String("service", cfg.Env.ServiceName), slog.String("env", cfg.Env.Name))
	slog.SetDefault(logger)
	return logger, nil
}

// newDB returns nil when Postgres is disabled; downstream constructors fall
// back to in-memory stores.
func newDB(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	if !cfg.Postgres.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("postgres connected")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

func newRiskField(cfg *config.Config, logger *slog.Logger) (*risk.Field, error) {
	zones, err := risk.LoadZones(cfg.Risk.ZonesPath)
	if err != nil {
		return nil, err
	}
	field, err := risk.NewField(zones, risk.WithIntersection(cfg.Risk.Intersection))
	if err != nil {
		return nil, err
	}
	logger.Info("risk zones loaded",
		slog.Int("zones", len(zones)),
		slog.String("intersection", cfg.Risk.Intersection))
	return field, nil
}

type optimizerParams struct {
	fx.In

	Config    *config.Config
	Geocoder  ports.Geocoder
	Road      ports.RoadProvider
	Explainer ports.Explainer
	History   ports.HistoryStore
	Field     *risk.Field
	Model     *cost.Model
}

func newOptimizer(p optimizerParams) (*services.Optimizer, error) {
	return services.NewOptimizer(services.Deps{
		Geocoder:  p.Geocoder,
		Road:      p.Road,
		Explainer: p.Explainer,
		History:   p.History,
		Field:     p.Field,
		Model:     p.Model,
		Solver:    solverOptions(p.Config.Solver),
		Policy:    p.Config.Pipeline,
	})
}

type httpServerParams struct {
	fx.In

	Config    *config.Config
	Optimizer *services.Optimizer
	Field     *risk.Field
	History   ports.HistoryStore
}

func newHTTPServer(p httpServerParams) *http.Server {
	router := api.NewRouter(api.Deps{
		Optimizer: p.Optimizer,
		Field:     p.Field,
		History:   p.History,
		Service:   p.Config.Env.ServiceName,
		Version:   version,
	})

	h := p.Config.HTTP
	return &http.Server{
		Addr:              ":" + strconv.Itoa(h.Port),
		Handler:           http.MaxBytesHandler(router, h.MaxBodyBytes),
		ReadHeaderTimeout: h.Timeouts.ReadHeaderTimeout,
		ReadTimeout:       h.Timeouts.ReadTimeout,
		WriteTimeout:      h.Timeouts.WriteTimeout,
		IdleTimeout:       h.Timeouts.IdleTimeout,
	}
}

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Server    *http.Server
	Optimizer *services.Optimizer
	Logger    *slog.Logger
}

func startServer(p startServerParams) {
	p.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", p.Server.Addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", p.Server.Addr)
			}
			p.Logger.Info("server listening", slog.String("addr", p.Server.Addr))

			go func() {
				if err := p.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("server stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := p.Server.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "shutdown http server")
			}
			p.Optimizer.Wait()
			return nil
		},
	})
}
