package geo

import (
	"math"
	"testing"

	"delivery-route-optimizer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kmEast returns a point d kilometers east of origin along its parallel.
func kmEast(origin domain.Coordinates, d float64) domain.Coordinates {
	dLng := d / (EarthRadiusKm * math.Cos(origin.Lat*math.Pi/180)) * 180 / math.Pi
	return domain.Coordinates{Lat: origin.Lat, Lng: origin.Lng + dLng}
}

// kmNorth returns a point d kilometers north of origin along its meridian.
func kmNorth(origin domain.Coordinates, d float64) domain.Coordinates {
	return domain.Coordinates{Lat: origin.Lat + d/EarthRadiusKm*180/math.Pi, Lng: origin.Lng}
}

func TestDistance_IdentityAndSymmetry(t *testing.T) {
	points := []domain.Coordinates{
		{Lat: 25.3960, Lng: 68.3578},
		{Lat: 25.3624, Lng: 68.3462},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 90, Lng: 0},
		{Lat: -90, Lng: 180},
		{Lat: 0, Lng: -180},
	}

	for _, a := range points {
		assert.Zero(t, Distance(a, a), "distance(%v,%v)", a, a)
		for _, b := range points {
			assert.Equal(t, Distance(a, b), Distance(b, a), "symmetry %v %v", a, b)
		}
	}
}

func TestDistance_KnownValues(t *testing.T) {
	// One degree of latitude along a meridian.
	d := Distance(domain.Coordinates{Lat: 0, Lng: 0}, domain.Coordinates{Lat: 1, Lng: 0})
	assert.InDelta(t, 111.195, d, 0.01)

	// Antipodal points are half the circumference apart without NaN.
	anti := Distance(domain.Coordinates{Lat: 0, Lng: 0}, domain.Coordinates{Lat: 0, Lng: 180})
	require.False(t, math.IsNaN(anti))
	assert.InDelta(t, math.Pi*EarthRadiusKm, anti, 1e-6)

	// Near-zero separation stays tiny and non-negative.
	tiny := Distance(domain.Coordinates{Lat: 10, Lng: 10}, domain.Coordinates{Lat: 10, Lng: 10.0000001})
	assert.True(t, tiny >= 0 && tiny < 1e-4)
}

func TestPointInCircle(t *testing.T) {
	center := domain.Coordinates{Lat: 25.0, Lng: 68.0}

	assert.True(t, PointInCircle(center, center, 0.5))
	assert.True(t, PointInCircle(kmNorth(center, 0.9), center, 1))
	assert.False(t, PointInCircle(kmNorth(center, 1.1), center, 1))
}

func TestSegmentIntersectsCircle_Branches(t *testing.T) {
	center := domain.Coordinates{Lat: 25.0, Lng: 68.0}

	tests := []struct {
		name       string
		start, end domain.Coordinates
		radius     float64
		want       bool
		fraction   float64
	}{
		{
			name:     "both endpoints inside",
			start:    kmEast(center, -0.5),
			end:      kmEast(center, 0.5),
			radius:   1,
			want:     true,
			fraction: 1,
		},
		{
			name:     "one endpoint inside",
			start:    kmEast(center, 0.5),
			end:      kmEast(center, 5),
			radius:   1,
			want:     true,
			fraction: 0.5,
		},
		{
			name:     "both outside",
			start:    kmEast(center, 3),
			end:      kmEast(center, 8),
			radius:   1,
			want:     false,
			fraction: 0,
		},
		{
			// The midpoint graze is invisible to the endpoint-based approximation.
			name:     "passes through center with endpoints outside",
			start:    kmEast(center, -5),
			end:      kmEast(center, 5),
			radius:   2,
			want:     false,
			fraction: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, portion := SegmentIntersectsCircle(tt.start, tt.end, center, tt.radius)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, tt.fraction*Distance(tt.start, tt.end), portion, 1e-9)
		})
	}
}

func TestSegmentCircleChord(t *testing.T) {
	center := domain.Coordinates{Lat: 25.0, Lng: 68.0}

	// A 10 km segment centered on a 2 km circle crosses a 4 km chord.
	ok, portion := SegmentCircleChord(kmEast(center, -5), kmEast(center, 5), center, 2)
	require.True(t, ok)
	assert.InDelta(t, 4.0, portion, 0.01)

	// Fully inside.
	ok, portion = SegmentCircleChord(kmEast(center, -0.5), kmEast(center, 0.5), center, 1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, portion, 0.01)

	// Misses the circle entirely.
	ok, portion = SegmentCircleChord(kmNorth(kmEast(center, -5), 3), kmNorth(kmEast(center, 5), 3), center, 2)
	assert.False(t, ok)
	assert.Zero(t, portion)
}

func TestDistanceMatrix(t *testing.T) {
	origin := domain.Coordinates{Lat: 0, Lng: 0}
	coords := []domain.Coordinates{origin, kmEast(origin, 5), kmEast(origin, 12)}

	m := DistanceMatrix(coords)
	require.NoError(t, m.Validate())
	require.Equal(t, 3, m.Size())

	for i := range m {
		assert.Zero(t, m[i][i])
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
			for k := range m {
				assert.LessOrEqual(t, m[i][k], m[i][j]+m[j][k]+1e-9)
			}
		}
	}
	assert.InDelta(t, 5.0, m[0][1], 1e-6)
	assert.InDelta(t, 7.0, m[1][2], 1e-6)
}

func TestMatrixValidate(t *testing.T) {
	err := Matrix{{0, 1}, {1}}.Validate()
	assert.ErrorIs(t, err, ErrNotSquare)
}
