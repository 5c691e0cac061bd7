package ports

import (
	"context"

	"delivery-route-optimizer/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// RoadProvider answers real-road questions. Both calls are best-effort:
// callers fall back to great-circle estimates on any error.
type RoadProvider interface {
	// Route returns the driving route through coords in order.
	Route(ctx context.Context, coords []domain.Coordinates) (*domain.RoadRoute, error)
	// DistanceMatrix returns an n×n matrix of driving distances in kilometers.
	DistanceMatrix(ctx context.Context, coords []domain.Coordinates) ([][]float64, error)
}

// DistanceCache stores road distances from one origin to many destinations.
// Keys are opaque location strings chosen by the caller.
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}
