package domain

// CostBreakdown is an analytic, non-learned itemization of trip cost.
type CostBreakdown struct {
	FuelLiters     float64
	FuelCost       float64
	TrafficPenalty float64
	IdleCost       float64
	StopCost       float64
	BaseFare       float64
}

// CostEstimate is a point prediction with a 95% confidence interval.
// ConfidenceLower <= PredictedCost <= ConfidenceUpper and ConfidenceLower >= 0.
type CostEstimate struct {
	PredictedCost   float64
	ConfidenceLower float64
	ConfidenceUpper float64
	Breakdown       CostBreakdown
}

// TripFeatures are the inputs of the cost model.
// IdleMinutes is optional; when nil it defaults to 3 minutes per stop.
type TripFeatures struct {
	DistanceKm    float64
	StopCount     int
	AvgSpeedKmh   float64
	TrafficFactor float64
	EfficiencyMPG float64
	IdleMinutes   *float64
}
