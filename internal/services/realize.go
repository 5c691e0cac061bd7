package services

import (
	"context"
	"math"

	"github.com/google/uuid"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/graph"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/solver"
)

// realize turns a node order into a reported route. Distances come from the
// unweighted base matrix and times from speedKmh.
func (o *Optimizer) realize(g *graph.Graph, route domain.Route, speedKmh float64, withSegments bool) domain.OptimizedRoute {
	r := domain.OptimizedRoute{
		RouteID:      uuid.NewString(),
		Indices:      append(domain.Route(nil), route...),
		OrderedStops: make([]string, len(route)),
		Coordinates:  make([]domain.Coordinates, len(route)),
		Segments:     []domain.RouteSegment{},
	}
	for i, idx := range route {
		r.OrderedStops[i] = g.Nodes[idx].Name
		r.Coordinates[i] = g.Nodes[idx].Coords
	}

	r.TotalDistanceKm = solver.RouteDistance(g.Base, route)
	r.TotalTimeMin = minutes(r.TotalDistanceKm, speedKmh)

	if withSegments {
		for i := 0; i+1 < len(route); i++ {
			from, to := g.Nodes[route[i]], g.Nodes[route[i+1]]
			d := g.Base[from.Index][to.Index]
			r.Segments = append(r.Segments, domain.RouteSegment{
				FromIndex:        from.Index,
				ToIndex:          to.Index,
				FromName:         from.Name,
				ToName:           to.Name,
				From:             from.Coords,
				To:               to.Coords,
				DistanceKm:       d,
				EstimatedTimeMin: minutes(d, speedKmh),
				RiskScore:        o.field.AnalyzeRoute([]domain.Coordinates{from.Coords, to.Coords}).TotalRiskScore,
			})
		}
	}
	return r
}

// droppedNames maps solver node indices to stop names, nil when none were dropped.
func droppedNames(g *graph.Graph, dropped []int) []string {
	if len(dropped) == 0 {
		return nil
	}
	names := make([]string, len(dropped))
	for i, idx := range dropped {
		names[i] = g.Nodes[idx].Name
	}
	return names
}

// applyRoad replaces matrix estimates with the road provider's figures when it
// answers with a positive distance. Time is only replaced when keepTime is false.
func (o *Optimizer) applyRoad(ctx context.Context, r *domain.OptimizedRoute, keepTime bool) {
	if o.road == nil || len(r.Coordinates) < 2 {
		return
	}

	rr, err := o.road.Route(ctx, r.Coordinates)
	if err != nil {
		o.degraded(ctx, "road", err)
		return
	}
	if rr == nil || rr.DistanceMeters <= 0 {
		return
	}

	r.TotalDistanceKm = rr.DistanceMeters / 1000.0
	if !keepTime {
		r.TotalTimeMin = rr.DurationSeconds / 60.0
	}
	r.Geometry = rr.Geometry
}

func (o *Optimizer) degraded(ctx context.Context, provider string, err error) {
	obs.Degraded(provider)
	obs.Logger(ctx).Warn("external service degraded", "provider", provider, "err", err)
}

func minutes(km, speedKmh float64) float64 {
	if speedKmh <= 0 {
		return 0
	}
	return km / speedKmh * 60
}

// QualityScore rates a route 0-100 from distance, risk and predicted cost,
// rounded to one decimal.
func QualityScore(distanceKm, riskScore, cost float64) float64 {
	distance := math.Max(0, 100-distanceKm/2)
	risk := math.Max(0, 100-riskScore*10)
	money := math.Max(0, 100-cost/50)
	return math.Round((0.4*distance+0.4*risk+0.2*money)*10) / 10
}
