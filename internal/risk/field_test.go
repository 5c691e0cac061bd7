package risk

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = domain.Coordinates{Lat: 25.0, Lng: 68.0}

func east(d float64) domain.Coordinates {
	dLng := d / (geo.EarthRadiusKm * math.Cos(origin.Lat*math.Pi/180)) * 180 / math.Pi
	return domain.Coordinates{Lat: origin.Lat, Lng: origin.Lng + dLng}
}

func zone(name string, center domain.Coordinates, radius float64, level int, kind string) domain.RiskZone {
	return domain.RiskZone{Name: name, Center: center, RadiusKm: radius, RiskLevel: level, ZoneType: kind}
}

func TestNewField_RejectsInvalidZones(t *testing.T) {
	tests := []struct {
		name string
		zone domain.RiskZone
	}{
		{"empty name", zone("", origin, 1, 5, "crime")},
		{"zero radius", zone("a", origin, 0, 5, "crime")},
		{"level too low", zone("a", origin, 1, 0, "crime")},
		{"level too high", zone("a", origin, 1, 11, "crime")},
		{"bad center", zone("a", domain.Coordinates{Lat: 91}, 1, 5, "crime")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField([]domain.RiskZone{tt.zone})
			assert.ErrorIs(t, err, ErrInvalidZone)
		})
	}
}

func TestNodeRiskFactor(t *testing.T) {
	field, err := NewField([]domain.RiskZone{
		zone("a", origin, 1, 8, "accident"),
		zone("b", east(0.5), 1, 3, "crime"),
		zone("far", east(50), 1, 10, "crime"),
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, field.NodeRiskFactor(east(20)), 1e-12)
	assert.InDelta(t, 1.0+0.8+0.3, field.NodeRiskFactor(east(0.2)), 1e-12)
	assert.InDelta(t, 1.0+0.3, field.NodeRiskFactor(east(1.3)), 1e-12)

	factors := field.NodeRiskFactors([]domain.Coordinates{east(20), origin})
	assert.Equal(t, []float64{1.0, field.NodeRiskFactor(origin)}, factors)
}

func TestSegmentRisk(t *testing.T) {
	field, err := NewField([]domain.RiskZone{
		zone("inside", origin, 2, 6, "congestion"),
		zone("miss", east(30), 1, 9, "crime"),
	})
	require.NoError(t, err)

	// One endpoint inside: portion = half of 4 km, score = 6 × 2/2.
	score, names := field.SegmentRisk(east(1), east(5))
	assert.InDelta(t, 6.0, score, 1e-6)
	assert.Equal(t, []string{"inside"}, names)

	score, names = field.SegmentRisk(east(10), east(20))
	assert.Zero(t, score)
	assert.Empty(t, names)
}

func TestAnalyzeRoute_Degenerate(t *testing.T) {
	field, err := NewField(nil)
	require.NoError(t, err)

	got := field.AnalyzeRoute([]domain.Coordinates{origin})
	assert.Zero(t, got.TotalRiskScore)
	assert.Equal(t, domain.RiskLevelNone, got.RiskLevel)

	got = field.AnalyzeRoute([]domain.Coordinates{origin, origin})
	assert.Zero(t, got.TotalRiskScore)
	assert.Equal(t, domain.RiskLevelLow, got.RiskLevel)
}

func TestAnalyzeRoute_WeightedAndDeduplicated(t *testing.T) {
	field, err := NewField([]domain.RiskZone{
		zone("hot", east(1), 1.5, 8, "accident"),
		zone("warm", east(1), 1.5, 2, "accident"),
		zone("cool", east(10), 0.5, 1, "crime"),
	})
	require.NoError(t, err)

	points := []domain.Coordinates{origin, east(2), origin, east(10)}
	got := field.AnalyzeRoute(points)

	assert.Equal(t, []string{"hot", "warm", "cool"}, got.ZonesHit)
	assert.Equal(t, map[string]int{"accident": 2, "crime": 1}, got.ZonesByType)
	assert.LessOrEqual(t, got.TotalRiskScore, 10.0)
	assert.Greater(t, got.TotalRiskScore, 0.0)
	require.Len(t, got.Segments, 3)
	assert.Equal(t, 0, got.Segments[0].SegmentIndex)
}

func TestAnalyzeRoute_ClampsAtTen(t *testing.T) {
	field, err := NewField([]domain.RiskZone{
		zone("a", origin, 0.1, 10, "crime"),
		zone("b", origin, 0.1, 10, "crime"),
	})
	require.NoError(t, err)

	got := field.AnalyzeRoute([]domain.Coordinates{origin, east(0.08)})
	assert.Equal(t, 10.0, got.TotalRiskScore)
	assert.Equal(t, domain.RiskLevelCritical, got.RiskLevel)
}

func TestAnalyzeRoute_AddingOverlappingZoneNeverLowersRisk(t *testing.T) {
	base := []domain.RiskZone{zone("a", east(3), 1, 4, "crime")}
	points := []domain.Coordinates{origin, east(3), east(6), east(9)}

	candidates := []domain.RiskZone{
		zone("b", east(3), 2, 1, "accident"),
		zone("c", east(6.2), 0.5, 9, "construction"),
		zone("d", east(9), 3, 5, "congestion"),
	}

	before, err := NewField(base)
	require.NoError(t, err)
	baseScore := before.AnalyzeRoute(points).TotalRiskScore

	for _, extra := range candidates {
		after, err := NewField(append(append([]domain.RiskZone{}, base...), extra))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, after.AnalyzeRoute(points).TotalRiskScore, baseScore, extra.Name)
	}
}

func TestAnalyzeRoute_MidpointZone(t *testing.T) {
	// A level-8, 2 km zone on the midpoint of a straight 10 km segment.
	zones := []domain.RiskZone{zone("mid", east(5), 2, 8, "accident")}
	points := []domain.Coordinates{origin, east(10)}

	approx, err := NewField(zones)
	require.NoError(t, err)
	ok, _ := geo.SegmentIntersectsCircle(points[0], points[1], east(5), 2)
	assert.False(t, ok, "endpoint heuristic cannot see a midpoint crossing")
	assert.Zero(t, approx.AnalyzeRoute(points).TotalRiskScore)

	exact, err := NewField(zones, WithIntersection(ModeExact))
	require.NoError(t, err)
	score, names := exact.SegmentRisk(points[0], points[1])
	assert.Equal(t, []string{"mid"}, names)
	assert.InDelta(t, 8*4.0/2, score, 0.05)

	got := exact.AnalyzeRoute(points)
	assert.Contains(t, []string{domain.RiskLevelHigh, domain.RiskLevelCritical}, got.RiskLevel)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.RiskLevelLow, Classify(0))
	assert.Equal(t, domain.RiskLevelLow, Classify(1.99))
	assert.Equal(t, domain.RiskLevelMedium, Classify(2))
	assert.Equal(t, domain.RiskLevelHigh, Classify(5))
	assert.Equal(t, domain.RiskLevelCritical, Classify(7))
}

func TestLoadZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": " Saddar ", "center": {"lat": 25.37, "lng": 68.36}, "radius_km": 1, "risk_level": 6, "zone_type": "congestion"}
	]`), 0o600))

	zones, err := LoadZones(path)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "Saddar", zones[0].Name)
	assert.Equal(t, 25.37, zones[0].Center.Lat)

	_, err = LoadZones(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadZones_ShippedDefinitions(t *testing.T) {
	zones, err := LoadZones(filepath.Join("..", "..", "data", "risk_zones.json"))
	require.NoError(t, err)

	field, err := NewField(zones)
	require.NoError(t, err)
	assert.Len(t, field.Zones(), len(zones))
}
