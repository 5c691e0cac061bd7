package domain

import "time"

// TimeWindow is an optional delivery window in HH:MM form.
type TimeWindow struct {
	Start string `validate:"required"`
	End   string `validate:"required"`
}

// DeliveryStop is a single stop address with optional constraints.
type DeliveryStop struct {
	Address    string `validate:"required"`
	Priority   int    `validate:"min=0,max=3"`
	TimeWindow *TimeWindow
}

// DeliveryRequest is the input of a single optimization.
type DeliveryRequest struct {
	UserID           string
	StartLocation    string         `validate:"required"`
	Stops            []DeliveryStop `validate:"required,min=1,dive"`
	Vehicle          VehicleProfile
	AvoidPeakHours   bool
	PrioritizeSafety bool
}

// Explanation is the optional narrative produced by an external explainer.
type Explanation struct {
	Summary         string
	Reasoning       string
	TradeOffs       string
	Recommendations string
}

// RouteResponse is the full result of one optimization.
type RouteResponse struct {
	PrimaryRoute     OptimizedRoute
	Cost             CostEstimate
	Risk             RiskAssessment
	Alternatives     []AlternativeStrategy
	Explanation      *Explanation
	ProcessingTimeMs float64
}

// HistoryEntry is the flattened summary of a completed optimization.
type HistoryEntry struct {
	ID              string
	UserID          string
	StartLocation   string
	NumStops        int
	TotalDistanceKm float64
	TotalTimeMin    float64
	PredictedCost   float64
	RiskScore       float64
	QualityScore    float64
	CreatedAt       time.Time
}

// DashboardStats aggregates a user's optimization history.
type DashboardStats struct {
	TotalRoutes     int
	TotalDistanceKm float64
	TotalCost       float64
	AvgRiskScore    float64
	AvgQualityScore float64
	Recent          []DailyTotal
}

// DailyTotal is one point of the recent-history series.
type DailyTotal struct {
	Date       string
	DistanceKm float64
	Cost       float64
}
