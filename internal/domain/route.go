package domain

// Route is an ordered sequence of distinct node indices starting at the depot (index 0).
// It is an open path: there is no return leg to the start.
type Route []int

// RouteSegment is one derived leg of a realized route.
type RouteSegment struct {
	FromIndex        int
	ToIndex          int
	FromName         string
	ToName           string
	From             Coordinates
	To               Coordinates
	DistanceKm       float64
	EstimatedTimeMin float64
	RiskScore        float64
}

// TurnStep is a single turn-by-turn instruction from a road provider.
type TurnStep struct {
	Instruction     string
	Type            string
	Modifier        string
	Name            string
	DistanceMeters  float64
	DurationSeconds float64
}

// RoadRoute is what a real-road provider returns for an ordered list of coordinates.
type RoadRoute struct {
	Geometry        []Coordinates
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []TurnStep
}

// OptimizedRoute is the realized (primary or alternative) delivery route.
// Distances and times are derived from the unweighted base matrix or a road provider.
type OptimizedRoute struct {
	RouteID         string
	Indices         Route
	OrderedStops    []string
	Coordinates     []Coordinates
	Segments        []RouteSegment
	TotalDistanceKm float64
	TotalTimeMin    float64
	TotalRiskScore  float64
	QualityScore    float64
	Geometry        []Coordinates
	// DroppedStops names the stops the solver left out of the route.
	DroppedStops []string
}
