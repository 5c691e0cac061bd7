package dto

import (
	"math"

	"delivery-route-optimizer/internal/domain"
)

type TimeWindowRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type StopRequest struct {
	Address    string             `json:"address"`
	Priority   *int               `json:"priority"`
	TimeWindow *TimeWindowRequest `json:"time_window"`
}

type VehicleRequest struct {
	VehicleType        string   `json:"vehicle_type"`
	FuelEfficiencyMPG  float64  `json:"fuel_efficiency_mpg"`
	FuelPricePerGallon *float64 `json:"fuel_price_per_gallon"`
}

type OptimizeRequest struct {
	Stops            []StopRequest  `json:"stops"`
	Vehicle          VehicleRequest `json:"vehicle"`
	StartLocation    string         `json:"start_location"`
	AvoidPeakHours   *bool          `json:"avoid_peak_hours"`
	PrioritizeSafety bool           `json:"prioritize_safety"`
}

// ToDomain applies request defaults: priority 1, fuel price 3.5 and peak
// avoidance on. An explicit non-positive fuel price is rejected here because
// the domain treats zero as "not given".
func (r OptimizeRequest) ToDomain(userID string) (domain.DeliveryRequest, error) {
	out := domain.DeliveryRequest{
		UserID:           userID,
		StartLocation:    r.StartLocation,
		AvoidPeakHours:   true,
		PrioritizeSafety: r.PrioritizeSafety,
		Vehicle: domain.VehicleProfile{
			VehicleType:        r.Vehicle.VehicleType,
			FuelEfficiencyMPG:  r.Vehicle.FuelEfficiencyMPG,
			FuelPricePerGallon: domain.DefaultFuelPricePerGallon,
		},
	}
	if r.AvoidPeakHours != nil {
		out.AvoidPeakHours = *r.AvoidPeakHours
	}
	if p := r.Vehicle.FuelPricePerGallon; p != nil {
		if *p <= 0 {
			return out, &domain.ValidationError{Field: "Vehicle.FuelPricePerGallon", Reason: "must be greater than 0"}
		}
		out.Vehicle.FuelPricePerGallon = *p
	}

	for _, s := range r.Stops {
		stop := domain.DeliveryStop{Address: s.Address, Priority: 1}
		if s.Priority != nil {
			stop.Priority = *s.Priority
		}
		if s.TimeWindow != nil {
			stop.TimeWindow = &domain.TimeWindow{Start: s.TimeWindow.StartTime, End: s.TimeWindow.EndTime}
		}
		out.Stops = append(out.Stops, stop)
	}
	return out, nil
}

type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type SegmentResponse struct {
	FromAddress      string              `json:"from_address"`
	ToAddress        string              `json:"to_address"`
	FromCoords       CoordinatesResponse `json:"from_coords"`
	ToCoords         CoordinatesResponse `json:"to_coords"`
	DistanceKm       float64             `json:"distance_km"`
	EstimatedTimeMin float64             `json:"estimated_time_min"`
	RiskScore        float64             `json:"risk_score"`
}

type RouteResponse struct {
	RouteID           string                `json:"route_id"`
	OrderedStops      []string              `json:"ordered_stops"`
	Coordinates       []CoordinatesResponse `json:"coordinates"`
	Segments          []SegmentResponse     `json:"segments"`
	TotalDistanceKm   float64               `json:"total_distance_km"`
	TotalTimeMin      float64               `json:"total_time_min"`
	TotalRiskScore    float64               `json:"total_risk_score"`
	RouteQualityScore float64               `json:"route_quality_score"`
	RouteGeometry     [][]float64           `json:"route_geometry"`
	DroppedStops      []string              `json:"dropped_stops,omitempty"`
}

type CostBreakdownResponse struct {
	FuelLiters     float64 `json:"fuel_liters"`
	FuelCost       float64 `json:"fuel_cost"`
	TrafficPenalty float64 `json:"traffic_penalty"`
	IdleCost       float64 `json:"idle_cost"`
	StopCost       float64 `json:"stop_cost"`
	BaseFare       float64 `json:"base_fare"`
}

type CostResponse struct {
	PredictedCost   float64               `json:"predicted_cost"`
	ConfidenceLower float64               `json:"confidence_lower"`
	ConfidenceUpper float64               `json:"confidence_upper"`
	CostBreakdown   CostBreakdownResponse `json:"cost_breakdown"`
}

type SegmentRiskResponse struct {
	SegmentIndex int      `json:"segment_index"`
	RiskScore    float64  `json:"risk_score"`
	Zones        []string `json:"zones"`
}

type RiskResponse struct {
	TotalRiskScore       float64               `json:"total_risk_score"`
	RiskZonesEncountered []string              `json:"risk_zones_encountered"`
	SegmentRisks         []SegmentRiskResponse `json:"segment_risks"`
	RiskLevel            string                `json:"risk_level"`
	ZonesByType          map[string]int        `json:"zones_by_type"`
}

type AlternativeResponse struct {
	Strategy       string        `json:"strategy"`
	Name           string        `json:"name"`
	Route          RouteResponse `json:"route"`
	RiskLevel      string        `json:"risk_level"`
	Cost           CostResponse  `json:"cost"`
	Recommendation string        `json:"recommendation"`
	TradeOffs      string        `json:"trade_offs"`
	IdenticalTo    string        `json:"identical_to,omitempty"`
}

type ExplanationResponse struct {
	Summary         string `json:"summary"`
	Reasoning       string `json:"reasoning"`
	TradeOffs       string `json:"trade_offs"`
	Recommendations string `json:"recommendations"`
}

type OptimizeResponse struct {
	PrimaryRoute     RouteResponse         `json:"primary_route"`
	CostPrediction   CostResponse          `json:"cost_prediction"`
	RiskAnalysis     RiskResponse          `json:"risk_analysis"`
	Alternatives     []AlternativeResponse `json:"alternatives"`
	Explanation      *ExplanationResponse  `json:"explanation"`
	ProcessingTimeMs float64               `json:"processing_time_ms"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func Coords(c domain.Coordinates) CoordinatesResponse {
	return CoordinatesResponse{Lat: c.Lat, Lng: c.Lng}
}

func FromRoute(r domain.OptimizedRoute) RouteResponse {
	out := RouteResponse{
		RouteID:           r.RouteID,
		OrderedStops:      r.OrderedStops,
		Coordinates:       make([]CoordinatesResponse, 0, len(r.Coordinates)),
		Segments:          make([]SegmentResponse, 0, len(r.Segments)),
		TotalDistanceKm:   round(r.TotalDistanceKm, 2),
		TotalTimeMin:      round(r.TotalTimeMin, 1),
		TotalRiskScore:    round(r.TotalRiskScore, 2),
		RouteQualityScore: round(r.QualityScore, 1),
		DroppedStops:      r.DroppedStops,
	}
	for _, c := range r.Coordinates {
		out.Coordinates = append(out.Coordinates, Coords(c))
	}
	for _, s := range r.Segments {
		out.Segments = append(out.Segments, SegmentResponse{
			FromAddress:      s.FromName,
			ToAddress:        s.ToName,
			FromCoords:       Coords(s.From),
			ToCoords:         Coords(s.To),
			DistanceKm:       round(s.DistanceKm, 2),
			EstimatedTimeMin: round(s.EstimatedTimeMin, 1),
			RiskScore:        round(s.RiskScore, 2),
		})
	}
	if len(r.Geometry) > 0 {
		out.RouteGeometry = make([][]float64, 0, len(r.Geometry))
		for _, c := range r.Geometry {
			out.RouteGeometry = append(out.RouteGeometry, c.CoordsToList())
		}
	}
	return out
}

func FromCost(c domain.CostEstimate) CostResponse {
	b := c.Breakdown
	return CostResponse{
		PredictedCost:   math.Round(c.PredictedCost),
		ConfidenceLower: math.Round(c.ConfidenceLower),
		ConfidenceUpper: math.Round(c.ConfidenceUpper),
		CostBreakdown: CostBreakdownResponse{
			FuelLiters:     round(b.FuelLiters, 2),
			FuelCost:       math.Round(b.FuelCost),
			TrafficPenalty: math.Round(b.TrafficPenalty),
			IdleCost:       math.Round(b.IdleCost),
			StopCost:       math.Round(b.StopCost),
			BaseFare:       math.Round(b.BaseFare),
		},
	}
}

func FromRisk(r domain.RiskAssessment) RiskResponse {
	out := RiskResponse{
		TotalRiskScore:       round(r.TotalRiskScore, 2),
		RiskZonesEncountered: r.ZonesHit,
		SegmentRisks:         make([]SegmentRiskResponse, 0, len(r.Segments)),
		RiskLevel:            r.RiskLevel,
		ZonesByType:          r.ZonesByType,
	}
	if out.RiskZonesEncountered == nil {
		out.RiskZonesEncountered = []string{}
	}
	if out.ZonesByType == nil {
		out.ZonesByType = map[string]int{}
	}
	for _, s := range r.Segments {
		out.SegmentRisks = append(out.SegmentRisks, SegmentRiskResponse{
			SegmentIndex: s.SegmentIndex,
			RiskScore:    round(s.RiskScore, 2),
			Zones:        s.Zones,
		})
	}
	return out
}

func FromResponse(r *domain.RouteResponse) OptimizeResponse {
	out := OptimizeResponse{
		PrimaryRoute:     FromRoute(r.PrimaryRoute),
		CostPrediction:   FromCost(r.Cost),
		RiskAnalysis:     FromRisk(r.Risk),
		Alternatives:     make([]AlternativeResponse, 0, len(r.Alternatives)),
		ProcessingTimeMs: round(r.ProcessingTimeMs, 1),
	}
	for _, a := range r.Alternatives {
		out.Alternatives = append(out.Alternatives, AlternativeResponse{
			Strategy:       string(a.Kind),
			Name:           a.Name,
			Route:          FromRoute(a.Route),
			RiskLevel:      a.Risk.RiskLevel,
			Cost:           FromCost(a.Cost),
			Recommendation: a.Recommendation,
			TradeOffs:      a.TradeOffs,
			IdenticalTo:    string(a.IdenticalTo),
		})
	}
	if e := r.Explanation; e != nil {
		out.Explanation = &ExplanationResponse{
			Summary:         e.Summary,
			Reasoning:       e.Reasoning,
			TradeOffs:       e.TradeOffs,
			Recommendations: e.Recommendations,
		}
	}
	return out
}
