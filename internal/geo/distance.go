// Package geo is the geospatial kernel: great-circle distances and the coarse
// point/segment versus circle tests used by the risk field.
package geo

import (
	"math"

	"delivery-route-optimizer/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between a and b in kilometers.
func Distance(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// Rounding can push h slightly outside [0,1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// PointInCircle reports whether p lies within radiusKm of center (boundary inclusive).
func PointInCircle(p, center domain.Coordinates, radiusKm float64) bool {
	return Distance(p, center) <= radiusKm
}

// SegmentIntersectsCircle approximates how much of the segment start->end runs through
// the circle. It does not compute exact line-circle geometry:
//   - both endpoints inside: the whole segment length
//   - one endpoint inside: half the segment length
//   - nearest endpoint within the radius: 0.3 of the segment length
//   - otherwise no intersection
//
// Callers rely on these exact fractions; risk scores are calibrated against them.
func SegmentIntersectsCircle(start, end, center domain.Coordinates, radiusKm float64) (bool, float64) {
	dStart := Distance(start, center)
	dEnd := Distance(end, center)
	startIn := dStart <= radiusKm
	endIn := dEnd <= radiusKm

	if startIn || endIn {
		length := Distance(start, end)
		if startIn && endIn {
			return true, length
		}
		return true, length * 0.5
	}

	if math.Min(dStart, dEnd) <= radiusKm {
		return true, Distance(start, end) * 0.3
	}

	return false, 0
}
