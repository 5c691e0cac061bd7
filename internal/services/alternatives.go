package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"
	"delivery-route-optimizer/internal/graph"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/solver"
)

// Thresholds under which the safest route counts as the shortest one.
const (
	sameDistanceKm = 0.05
	sameRisk       = 0.01
)

// strategy is one weighting policy of the closed set built by buildStrategies.
type strategy struct {
	kind           domain.StrategyKind
	name           string
	recommendation string

	// weights returns the matrix the solver sees.
	weights func(g *graph.Graph, risk []float64) (geo.Matrix, error)
	// traffic and speed are the trip assumptions used for cost and time.
	traffic func(requestTraffic float64) float64
	speed   float64
	// keepTime ignores road durations and keeps the speed-derived estimate.
	keepTime bool
	tradeOff func(distanceKm float64, risk domain.RiskAssessment) string
}

func baseWeights(g *graph.Graph, _ []float64) (geo.Matrix, error) { return g.Base, nil }

func squaredRiskWeights(g *graph.Graph, risk []float64) (geo.Matrix, error) {
	return graph.SquaredRisk(g.Base, risk)
}

// buildStrategies returns the shortest, safest and off-peak policies in report order.
func (o *Optimizer) buildStrategies() []strategy {
	p := o.policy
	requestTraffic := func(tf float64) float64 { return tf }

	return []strategy{
		{
			kind:           domain.StrategyShortest,
			name:           "Shortest Distance",
			recommendation: "Fastest delivery time, but may pass through risky areas",
			weights:        baseWeights,
			traffic:        requestTraffic,
			speed:          p.StrategySpeedKmh,
			tradeOff: func(km float64, risk domain.RiskAssessment) string {
				return fmt.Sprintf("Saves %.1f km but risk is %s", km*0.02, risk.RiskLevel)
			},
		},
		{
			kind:           domain.StrategySafest,
			name:           "Safest Route",
			recommendation: "Avoids high-risk zones, may be slightly longer",
			weights:        squaredRiskWeights,
			traffic:        requestTraffic,
			speed:          p.StrategySpeedKmh,
			tradeOff: func(km float64, risk domain.RiskAssessment) string {
				return fmt.Sprintf("Risk level: %s, may add %.1f km", risk.RiskLevel, km*0.05)
			},
		},
		{
			kind:           domain.StrategyOffPeak,
			name:           "Off-Peak Schedule",
			recommendation: "Deliver during off-peak hours (10 PM - 6 AM) for lower costs",
			weights:        baseWeights,
			traffic:        func(float64) float64 { return p.OffPeakTrafficFactor },
			speed:          p.OffPeakSpeedKmh,
			keepTime:       true,
			tradeOff: func(float64, domain.RiskAssessment) string {
				return "Requires night shift, but saves ~20-30% on fuel cost due to less traffic"
			},
		},
	}
}

// alternatives solves every strategy concurrently, each with its own solver
// state. A strategy whose solve fails is left out.
func (o *Optimizer) alternatives(
	ctx context.Context,
	g *graph.Graph,
	risk []float64,
	requestTraffic float64,
	mpg float64,
) []domain.AlternativeStrategy {
	results := make([]*domain.AlternativeStrategy, len(o.strategies))

	var wg sync.WaitGroup
	for i, s := range o.strategies {
		wg.Go(func() {
			alt, err := o.runStrategy(ctx, s, g, risk, requestTraffic, mpg)
			if err != nil {
				obs.Logger(ctx).Error("strategy failed", "strategy", s.kind, "nodes", len(g.Nodes), "err", err)
				return
			}
			results[i] = alt
		})
	}
	wg.Wait()

	out := make([]domain.AlternativeStrategy, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	markIdentical(out)
	return out
}

func (o *Optimizer) runStrategy(
	ctx context.Context,
	s strategy,
	g *graph.Graph,
	risk []float64,
	requestTraffic float64,
	mpg float64,
) (_ *domain.AlternativeStrategy, err error) {
	defer obs.Time(ctx, "strategy."+string(s.kind))(&err)

	weighted, err := s.weights(g, risk)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}

	res, err := solver.Optimize(ctx, weighted, 0, o.solverOpts)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	route := o.realize(g, res.Route, s.speed, false)
	route.DroppedStops = droppedNames(g, res.Dropped)
	o.applyRoad(ctx, &route, s.keepTime)
	if s.keepTime {
		route.TotalTimeMin = minutes(route.TotalDistanceKm, s.speed)
	}

	assessment := o.field.AnalyzeRoute(route.Coordinates)
	route.TotalRiskScore = assessment.TotalRiskScore

	estimate := o.model.Predict(domain.TripFeatures{
		DistanceKm:    route.TotalDistanceKm,
		StopCount:     len(route.Indices) - 1,
		AvgSpeedKmh:   s.speed,
		TrafficFactor: s.traffic(requestTraffic),
		EfficiencyMPG: mpg,
	})
	route.QualityScore = QualityScore(route.TotalDistanceKm, assessment.TotalRiskScore, estimate.PredictedCost)

	return &domain.AlternativeStrategy{
		Kind:           s.kind,
		Name:           s.name,
		Route:          route,
		Risk:           assessment,
		Cost:           estimate,
		Recommendation: s.recommendation,
		TradeOffs:      s.tradeOff(route.TotalDistanceKm, assessment),
	}, nil
}

// markIdentical annotates the safest strategy when it matches the shortest one.
func markIdentical(alts []domain.AlternativeStrategy) {
	var shortest, safest *domain.AlternativeStrategy
	for i := range alts {
		switch alts[i].Kind {
		case domain.StrategyShortest:
			shortest = &alts[i]
		case domain.StrategySafest:
			safest = &alts[i]
		}
	}
	if shortest == nil || safest == nil {
		return
	}

	if math.Abs(safest.Route.TotalDistanceKm-shortest.Route.TotalDistanceKm) < sameDistanceKm &&
		math.Abs(safest.Risk.TotalRiskScore-shortest.Risk.TotalRiskScore) < sameRisk {
		safest.Recommendation += " (Same path as shortest)"
		safest.TradeOffs = "Identical path: no safer alternative found"
		safest.IdenticalTo = domain.StrategyShortest
	}
}
