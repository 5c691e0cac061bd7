package domain

// StrategyKind names a closed set of graph weighting policies.
type StrategyKind string

const (
	StrategyShortest StrategyKind = "shortest"
	StrategySafest   StrategyKind = "safest"
	StrategyOffPeak  StrategyKind = "off_peak"
)

// AlternativeStrategy is the outcome of solving under one weighting policy.
type AlternativeStrategy struct {
	Kind           StrategyKind
	Name           string
	Route          OptimizedRoute
	Risk           RiskAssessment
	Cost           CostEstimate
	Recommendation string
	TradeOffs      string
	IdenticalTo    StrategyKind
}
