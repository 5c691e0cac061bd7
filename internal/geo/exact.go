package geo

import (
	"math"

	"delivery-route-optimizer/internal/domain"
)

// IntersectFunc measures how much of a segment lies inside a circle.
type IntersectFunc func(start, end, center domain.Coordinates, radiusKm float64) (bool, float64)

// SegmentCircleChord computes the in-circle portion of start->end with exact line-circle
// intersection on a local equirectangular projection centered on the circle. The
// projection error is negligible for city-scale radii.
func SegmentCircleChord(start, end, center domain.Coordinates, radiusKm float64) (bool, float64) {
	length := Distance(start, end)

	ax, ay := project(start, center)
	bx, by := project(end, center)
	dx, dy := bx-ax, by-ay

	// Solve |A + t(B-A)|² = r² for t.
	qa := dx*dx + dy*dy
	qb := 2 * (ax*dx + ay*dy)
	qc := ax*ax + ay*ay - radiusKm*radiusKm

	if qa == 0 {
		// Degenerate segment: a point.
		return qc <= 0, 0
	}

	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return false, 0
	}

	sq := math.Sqrt(disc)
	t1 := (-qb - sq) / (2 * qa)
	t2 := (-qb + sq) / (2 * qa)

	lo := math.Max(0, t1)
	hi := math.Min(1, t2)
	if hi < lo {
		return false, 0
	}

	return true, (hi - lo) * length
}

// project maps p to kilometers east/north of origin.
func project(p, origin domain.Coordinates) (x, y float64) {
	lat0 := origin.Lat * math.Pi / 180
	x = (p.Lng - origin.Lng) * math.Pi / 180 * math.Cos(lat0) * EarthRadiusKm
	y = (p.Lat - origin.Lat) * math.Pi / 180 * EarthRadiusKm
	return x, y
}
