// Package services holds the route-construction pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/cost"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"
	"delivery-route-optimizer/internal/graph"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/risk"
	"delivery-route-optimizer/internal/solver"
)

const geocodeConcurrency = 4

// Deps are the collaborators of an Optimizer. Field, Model and Geocoder are
// required; the rest are optional and skipped when nil.
type Deps struct {
	Geocoder  ports.Geocoder
	Road      ports.RoadProvider
	Explainer ports.Explainer
	History   ports.HistoryStore

	Field *risk.Field
	Model *cost.Model

	Solver solver.Options
	Policy config.PipelineConfig
}

// Optimizer runs optimize requests. Field and Model are shared read-only;
// every solve builds its own solver state, so one Optimizer serves
// concurrent requests.
type Optimizer struct {
	geocoder  ports.Geocoder
	road      ports.RoadProvider
	explainer ports.Explainer
	history   ports.HistoryStore

	field *risk.Field
	model *cost.Model

	solverOpts solver.Options
	policy     config.PipelineConfig
	strategies []strategy

	validate *validator.Validate
	pending  sync.WaitGroup
}

func NewOptimizer(d Deps) (*Optimizer, error) {
	if d.Geocoder == nil || d.Field == nil || d.Model == nil {
		return nil, errors.New("new optimizer: geocoder, risk field and cost model are required")
	}

	o := &Optimizer{
		geocoder:   d.Geocoder,
		road:       d.Road,
		explainer:  d.Explainer,
		history:    d.History,
		field:      d.Field,
		model:      d.Model,
		solverOpts: d.Solver,
		policy:     d.Policy,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	o.strategies = o.buildStrategies()
	return o, nil
}

// Optimize geocodes, solves and annotates one delivery request.
func (o *Optimizer) Optimize(ctx context.Context, req domain.DeliveryRequest) (_ *domain.RouteResponse, err error) {
	defer obs.Time(ctx, "services.Optimize")(&err)
	started := time.Now()
	log := obs.Logger(ctx)

	if err := validateRequest(o.validate, &req); err != nil {
		return nil, err
	}
	log.Info("optimize request", "stops", len(req.Stops), "avoid_peak", req.AvoidPeakHours, "safety", req.PrioritizeSafety)

	nodes, err := o.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	n := len(nodes)
	coords := domain.NodeCoordinates(nodes)

	traffic, speed := o.policy.PeakTrafficFactor, o.policy.PeakSpeedKmh
	if req.AvoidPeakHours {
		traffic, speed = o.policy.AvoidPeakTraffic, o.policy.AvoidPeakSpeedKmh
	}

	riskFactors := o.field.NodeRiskFactors(coords)
	solveRisk := riskFactors
	if req.PrioritizeSafety {
		solveRisk = graph.AmplifyRisk(riskFactors, o.policy.SafetyExponent)
	}

	g, err := o.buildGraph(ctx, nodes, graph.Factors{Traffic: graph.Uniform(n, traffic), Risk: solveRisk})
	if err != nil {
		return nil, &domain.SolverError{Nodes: n, Err: err}
	}

	res, err := solver.Optimize(ctx, g.Weighted, 0, o.solverOpts)
	if err != nil {
		log.Error("solver failed", "nodes", n)
		return nil, &domain.SolverError{Nodes: n, Err: err}
	}
	if len(res.Dropped) > 0 {
		log.Warn("solver dropped nodes", "dropped", res.Dropped)
	}

	primary := o.realize(g, res.Route, speed, true)
	primary.DroppedStops = droppedNames(g, res.Dropped)
	assessment := o.field.AnalyzeRoute(primary.Coordinates)
	primary.TotalRiskScore = assessment.TotalRiskScore
	o.applyRoad(ctx, &primary, false)

	estimate := o.model.Predict(domain.TripFeatures{
		DistanceKm:    primary.TotalDistanceKm,
		StopCount:     len(primary.Indices) - 1,
		AvgSpeedKmh:   speed,
		TrafficFactor: traffic,
		EfficiencyMPG: req.Vehicle.FuelEfficiencyMPG,
	})
	primary.QualityScore = QualityScore(primary.TotalDistanceKm, assessment.TotalRiskScore, estimate.PredictedCost)

	alts := o.alternatives(ctx, g, riskFactors, traffic, req.Vehicle.FuelEfficiencyMPG)

	resp := &domain.RouteResponse{
		PrimaryRoute: primary,
		Cost:         estimate,
		Risk:         assessment,
		Alternatives: alts,
		Explanation:  o.explain(ctx, primary, len(req.Stops), estimate, assessment, alts),
	}
	resp.ProcessingTimeMs = float64(time.Since(started).Microseconds()) / 1000.0

	o.record(ctx, req, resp)

	log.Info("optimize done", "distance_km", primary.TotalDistanceKm, "risk", assessment.TotalRiskScore, "dur_ms", resp.ProcessingTimeMs)
	return resp, nil
}

// resolve geocodes the start and every stop concurrently. Node 0 is the start.
func (o *Optimizer) resolve(ctx context.Context, req domain.DeliveryRequest) ([]domain.Node, error) {
	addresses := make([]string, 0, 1+len(req.Stops))
	addresses = append(addresses, req.StartLocation)
	for _, s := range req.Stops {
		addresses = append(addresses, s.Address)
	}

	nodes := make([]domain.Node, len(addresses))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(geocodeConcurrency)
	for i, addr := range addresses {
		eg.Go(func() error {
			c, err := o.geocoder.Geocode(egCtx, addr)
			if err != nil {
				return &domain.ResolutionError{Address: addr, Err: err}
			}
			nodes[i] = domain.Node{Index: i, Coords: c, Name: addr}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// buildGraph prefers road distances and falls back to haversine when the
// provider is absent, fails, or returns a malformed matrix.
func (o *Optimizer) buildGraph(ctx context.Context, nodes []domain.Node, f graph.Factors) (*graph.Graph, error) {
	if o.road != nil {
		m, err := o.road.DistanceMatrix(ctx, domain.NodeCoordinates(nodes))
		if err == nil {
			g, err := graph.Build(nodes, geo.Matrix(m), f)
			if err == nil {
				return g, nil
			}
			o.degraded(ctx, "road", fmt.Errorf("road matrix rejected: %w", err))
		} else {
			o.degraded(ctx, "road", err)
		}
	}
	return graph.Build(nodes, nil, f)
}

func (o *Optimizer) explain(
	ctx context.Context,
	route domain.OptimizedRoute,
	stops int,
	estimate domain.CostEstimate,
	assessment domain.RiskAssessment,
	alts []domain.AlternativeStrategy,
) *domain.Explanation {
	if o.explainer == nil {
		return nil
	}
	e, err := o.explainer.Explain(ctx, ports.ExplainInput{
		Route:        route,
		NumStops:     stops,
		Cost:         estimate,
		Risk:         assessment,
		Alternatives: alts,
	})
	if err != nil {
		o.degraded(ctx, "explainer", err)
		return nil
	}
	return e
}

// record saves a history summary in the background when the request carries
// a user id. Failures are logged only.
func (o *Optimizer) record(ctx context.Context, req domain.DeliveryRequest, resp *domain.RouteResponse) {
	if o.history == nil || req.UserID == "" {
		return
	}

	entry := domain.HistoryEntry{
		UserID:          req.UserID,
		StartLocation:   req.StartLocation,
		NumStops:        len(req.Stops),
		TotalDistanceKm: resp.PrimaryRoute.TotalDistanceKm,
		TotalTimeMin:    resp.PrimaryRoute.TotalTimeMin,
		PredictedCost:   resp.Cost.PredictedCost,
		RiskScore:       resp.Risk.TotalRiskScore,
		QualityScore:    resp.PrimaryRoute.QualityScore,
		CreatedAt:       time.Now().UTC(),
	}

	timeout := o.policy.HistoryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		defer cancel()
		if err := o.history.Save(bg, entry); err != nil {
			obs.Logger(bg).Warn("history save failed", "user_id", entry.UserID, "err", err)
		}
	}()
}

// Wait blocks until background history writes finish.
func (o *Optimizer) Wait() {
	o.pending.Wait()
}
