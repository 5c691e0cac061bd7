// Package risk owns the process-wide set of risk zones and scores points and
// routes against it. A Field is immutable after construction and safe for
// concurrent use without locking.
package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"
)

// ErrInvalidZone is returned when a zone definition violates its invariants.
var ErrInvalidZone = errors.New("risk: invalid zone")

// Intersection modes for segment scoring.
const (
	ModeApproximate = "approximate"
	ModeExact       = "exact"
)

const maxRiskScore = 10.0

// Field is an ordered, read-only set of risk zones.
type Field struct {
	zones     []domain.RiskZone
	byName    map[string]domain.RiskZone
	intersect geo.IntersectFunc
}

type Option func(*Field)

// WithIntersection selects how segment/zone overlap is measured.
// Unknown modes fall back to the approximate heuristic.
func WithIntersection(mode string) Option {
	return func(f *Field) {
		if strings.EqualFold(mode, ModeExact) {
			f.intersect = geo.SegmentCircleChord
			return
		}
		f.intersect = geo.SegmentIntersectsCircle
	}
}

// NewField validates and copies zones into a new Field.
func NewField(zones []domain.RiskZone, opts ...Option) (*Field, error) {
	f := &Field{
		zones:     make([]domain.RiskZone, 0, len(zones)),
		byName:    make(map[string]domain.RiskZone, len(zones)),
		intersect: geo.SegmentIntersectsCircle,
	}
	for _, opt := range opts {
		opt(f)
	}

	for i, z := range zones {
		if err := validateZone(z); err != nil {
			return nil, fmt.Errorf("new risk field: zone #%d %q: %w", i+1, z.Name, err)
		}
		f.zones = append(f.zones, z)
		if _, ok := f.byName[z.Name]; !ok {
			f.byName[z.Name] = z
		}
	}

	return f, nil
}

type zoneSeed struct {
	Name   string `json:"name"`
	Center struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"center"`
	RadiusKm  float64 `json:"radius_km"`
	RiskLevel int     `json:"risk_level"`
	ZoneType  string  `json:"zone_type"`
}

// LoadZones reads zone definitions from a JSON array file.
func LoadZones(path string) ([]domain.RiskZone, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load risk zones: read %q: %w", path, err)
	}

	var seeds []zoneSeed
	if err := json.Unmarshal(bytes, &seeds); err != nil {
		return nil, fmt.Errorf("load risk zones: parse json: %w", err)
	}

	zones := make([]domain.RiskZone, 0, len(seeds))
	for _, s := range seeds {
		zones = append(zones, domain.RiskZone{
			Name:      strings.TrimSpace(s.Name),
			Center:    domain.Coordinates{Lat: s.Center.Lat, Lng: s.Center.Lng},
			RadiusKm:  s.RadiusKm,
			RiskLevel: s.RiskLevel,
			ZoneType:  strings.TrimSpace(s.ZoneType),
		})
	}

	return zones, nil
}

func validateZone(z domain.RiskZone) error {
	switch {
	case z.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidZone)
	case !z.Center.Valid():
		return fmt.Errorf("%w: center %v out of bounds", ErrInvalidZone, z.Center)
	case !(z.RadiusKm > 0) || math.IsInf(z.RadiusKm, 0):
		return fmt.Errorf("%w: radius_km must be > 0, got %v", ErrInvalidZone, z.RadiusKm)
	case z.RiskLevel < 1 || z.RiskLevel > 10:
		return fmt.Errorf("%w: risk_level must be in [1,10], got %d", ErrInvalidZone, z.RiskLevel)
	}
	return nil
}

// Zones returns a copy of all zones in definition order.
func (f *Field) Zones() []domain.RiskZone {
	out := make([]domain.RiskZone, len(f.zones))
	copy(out, f.zones)
	return out
}

// NodeRiskFactor returns 1 + Σ(level/10) over every zone containing p.
func (f *Field) NodeRiskFactor(p domain.Coordinates) float64 {
	factor := 1.0
	for _, z := range f.zones {
		if geo.PointInCircle(p, z.Center, z.RadiusKm) {
			factor += float64(z.RiskLevel) / 10
		}
	}
	return factor
}

// NodeRiskFactors evaluates NodeRiskFactor for each coordinate.
func (f *Field) NodeRiskFactors(coords []domain.Coordinates) []float64 {
	out := make([]float64, len(coords))
	for i, c := range coords {
		out[i] = f.NodeRiskFactor(c)
	}
	return out
}

// SegmentRisk sums level × (portion/radius) over every zone the segment touches.
func (f *Field) SegmentRisk(start, end domain.Coordinates) (float64, []string) {
	score := 0.0
	var hit []string
	for _, z := range f.zones {
		ok, portion := f.intersect(start, end, z.Center, z.RadiusKm)
		if !ok {
			continue
		}
		score += float64(z.RiskLevel) * (portion / z.RadiusKm)
		hit = append(hit, z.Name)
	}
	return score, hit
}

// AnalyzeRoute scores an ordered list of points as a length-weighted average of
// segment risk, clamped to [0,10].
func (f *Field) AnalyzeRoute(points []domain.Coordinates) domain.RiskAssessment {
	if len(points) < 2 {
		return domain.RiskAssessment{
			ZonesHit:    []string{},
			Segments:    []domain.RiskSegment{},
			RiskLevel:   domain.RiskLevelNone,
			ZonesByType: map[string]int{},
		}
	}

	var (
		totalLength float64
		weightedSum float64
		segments    = []domain.RiskSegment{}
		zonesHit    = []string{}
		seen        = map[string]struct{}{}
	)

	for i := 0; i < len(points)-1; i++ {
		start, end := points[i], points[i+1]
		length := geo.Distance(start, end)
		totalLength += length
		if length == 0 {
			continue
		}

		score, names := f.SegmentRisk(start, end)
		weightedSum += score * length
		if score <= 0 {
			continue
		}

		segments = append(segments, domain.RiskSegment{
			SegmentIndex: i,
			From:         start,
			To:           end,
			RiskScore:    score,
			Zones:        names,
		})
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			zonesHit = append(zonesHit, name)
		}
	}

	total := 0.0
	if totalLength > 0 {
		total = math.Min(weightedSum/totalLength, maxRiskScore)
	}

	return domain.RiskAssessment{
		TotalRiskScore: total,
		ZonesHit:       zonesHit,
		Segments:       segments,
		RiskLevel:      Classify(total),
		ZonesByType:    f.countByType(zonesHit),
	}
}

// Classify maps a 0-10 score onto a categorical level.
func Classify(score float64) string {
	switch {
	case score < 2:
		return domain.RiskLevelLow
	case score < 5:
		return domain.RiskLevelMedium
	case score < 7:
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelCritical
	}
}

func (f *Field) countByType(names []string) map[string]int {
	out := make(map[string]int)
	for _, name := range names {
		if z, ok := f.byName[name]; ok {
			out[z.ZoneType]++
		}
	}
	return out
}
