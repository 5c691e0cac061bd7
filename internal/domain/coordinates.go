package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Immutable geographic coordinates (latitude, longitude) in degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lng, c.Lat} }

// Point converts to an orb.Point, which is ordered [lng, lat].
func (c Coordinates) Point() orb.Point { return orb.Point{c.Lng, c.Lat} }

// FromPoint converts an orb.Point back into Coordinates.
func FromPoint(p orb.Point) Coordinates { return Coordinates{Lat: p.Lat(), Lng: p.Lon()} }

// Valid reports whether the coordinate is finite and within Earth bounds.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
