package dto

import (
	"time"

	"delivery-route-optimizer/internal/domain"
)

type HistoryItemResponse struct {
	ID              string    `json:"id"`
	StartLocation   string    `json:"start_location"`
	NumStops        int       `json:"num_stops"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalTimeMin    float64   `json:"total_time_min"`
	PredictedCost   float64   `json:"predicted_cost"`
	RiskScore       float64   `json:"risk_score"`
	QualityScore    float64   `json:"quality_score"`
	CreatedAt       time.Time `json:"created_at"`
}

type HistoryResponse struct {
	History []HistoryItemResponse `json:"history"`
}

type RecentRouteResponse struct {
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
	Cost     float64 `json:"cost"`
}

type StatsResponse struct {
	TotalRoutes     int                   `json:"total_routes"`
	TotalDistance   float64               `json:"total_distance"`
	TotalCost       float64               `json:"total_cost"`
	AvgRiskScore    float64               `json:"avg_risk_score"`
	AvgQualityScore float64               `json:"avg_quality_score"`
	RecentRoutes    []RecentRouteResponse `json:"recent_routes"`
}

func FromHistory(entries []domain.HistoryEntry) HistoryResponse {
	out := HistoryResponse{History: make([]HistoryItemResponse, 0, len(entries))}
	for _, e := range entries {
		out.History = append(out.History, HistoryItemResponse{
			ID:              e.ID,
			StartLocation:   e.StartLocation,
			NumStops:        e.NumStops,
			TotalDistanceKm: e.TotalDistanceKm,
			TotalTimeMin:    e.TotalTimeMin,
			PredictedCost:   e.PredictedCost,
			RiskScore:       e.RiskScore,
			QualityScore:    e.QualityScore,
			CreatedAt:       e.CreatedAt,
		})
	}
	return out
}

func FromStats(s domain.DashboardStats) StatsResponse {
	out := StatsResponse{
		TotalRoutes:     s.TotalRoutes,
		TotalDistance:   round(s.TotalDistanceKm, 1),
		TotalCost:       round(s.TotalCost, 2),
		AvgRiskScore:    round(s.AvgRiskScore, 1),
		AvgQualityScore: round(s.AvgQualityScore, 1),
		RecentRoutes:    make([]RecentRouteResponse, 0, len(s.Recent)),
	}
	for _, d := range s.Recent {
		out.RecentRoutes = append(out.RecentRoutes, RecentRouteResponse{
			Date:     d.Date,
			Distance: round(d.DistanceKm, 1),
			Cost:     round(d.Cost, 2),
		})
	}
	return out
}
