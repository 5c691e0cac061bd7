package ports

import (
	"context"

	"delivery-route-optimizer/internal/domain"
)

// ExplainInput carries the summaries a narrative is built from.
type ExplainInput struct {
	Route        domain.OptimizedRoute
	NumStops     int
	Cost         domain.CostEstimate
	Risk         domain.RiskAssessment
	Alternatives []domain.AlternativeStrategy
}

// Explainer produces a human-readable rationale for a route choice.
// A nil explanation with a nil error means none was produced.
type Explainer interface {
	Explain(ctx context.Context, in ExplainInput) (*domain.Explanation, error)
}
