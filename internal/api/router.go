package api

import (
	"net/http"

	"delivery-route-optimizer/internal/api/handlers"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/risk"
)

// Deps are what the HTTP surface needs. History may be nil.
type Deps struct {
	Optimizer handlers.RouteOptimizer
	Field     *risk.Field
	History   ports.HistoryStore
	Service   string
	Version   string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Service: d.Service, Version: d.Version}
	optimize := &handlers.OptimizeHandler{Optimizer: d.Optimizer}
	zones := &handlers.RiskZoneHandler{Field: d.Field}
	hist := &handlers.HistoryHandler{Store: d.History}

	mux.HandleFunc("/{$}", health.Health)
	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/api/optimize", optimize.Optimize)
	mux.HandleFunc("/api/risk-zones", zones.List)
	mux.HandleFunc("/api/risk-zones.geojson", zones.GeoJSON)
	mux.HandleFunc("/api/history", hist.List)
	mux.HandleFunc("/api/dashboard/stats", hist.Stats)
	mux.Handle("/metrics", obs.MetricsHandler())

	return requestIDMiddleware(loggingMiddleware(mux))
}
