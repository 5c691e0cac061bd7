package domain

// RiskZone is a circular geographic area with a severity level (1-10) and a category
// such as "accident", "congestion", "crime" or "construction".
type RiskZone struct {
	Name      string      `json:"name"`
	Center    Coordinates `json:"center"`
	RadiusKm  float64     `json:"radius_km"`
	RiskLevel int         `json:"risk_level"`
	ZoneType  string      `json:"zone_type"`
}

// Categorical risk levels reported by a RiskAssessment.
const (
	RiskLevelNone     = "none"
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelCritical = "critical"
)

// RiskSegment is the risk contribution of one leg of a route.
type RiskSegment struct {
	SegmentIndex int
	From         Coordinates
	To           Coordinates
	RiskScore    float64
	Zones        []string
}

// RiskAssessment summarizes the geographic risk of a realized route.
type RiskAssessment struct {
	TotalRiskScore float64
	ZonesHit       []string
	Segments       []RiskSegment
	RiskLevel      string
	ZonesByType    map[string]int
}
