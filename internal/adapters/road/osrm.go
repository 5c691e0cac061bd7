// Package road talks to real-road routing engines.
package road

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/httpx"
	"delivery-route-optimizer/internal/platform/obs"
)

// ErrTooFewPoints is returned for requests with fewer than two coordinates.
var ErrTooFewPoints = errors.New("road: at least two coordinates are required")

// OSRM is a client for the OSRM HTTP API (route and table services).
type OSRM struct {
	client  *httpx.Client
	baseURL string
	profile string
}

func NewOSRM(client *httpx.Client, baseURL, profile string) *OSRM {
	if profile == "" {
		profile = "driving"
	}
	return &OSRM{client: client, baseURL: strings.TrimRight(baseURL, "/"), profile: profile}
}

type osrmManeuver struct {
	Type        string `json:"type"`
	Modifier    string `json:"modifier"`
	Instruction string `json:"instruction"`
}

type osrmStep struct {
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Name     string       `json:"name"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmRoute struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Geometry *geojson.Geometry `json:"geometry"`
	Legs     []struct {
		Steps []osrmStep `json:"steps"`
	} `json:"legs"`
}

type routeResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
}

// coordPath renders coords in OSRM's "lng,lat;lng,lat" form.
func coordPath(coords []domain.Coordinates) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
	}
	return strings.Join(parts, ";")
}

// Route returns the driving route visiting coords in order.
func (o *OSRM) Route(ctx context.Context, coords []domain.Coordinates) (_ *domain.RoadRoute, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if len(coords) < 2 {
		return nil, ErrTooFewPoints
	}

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "true")
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s?%s", o.baseURL, o.profile, coordPath(coords), q.Encode())

	var rr routeResponse
	if err := o.client.GetJSON(ctx, endpoint, &rr); err != nil {
		return nil, fmt.Errorf("osrm: route request: %w", err)
	}
	if rr.Code != "Ok" {
		return nil, fmt.Errorf("osrm: route: %s %s", rr.Code, rr.Message)
	}
	if len(rr.Routes) == 0 {
		return nil, errors.New("osrm: route: no routes returned")
	}

	r := rr.Routes[0]
	out := &domain.RoadRoute{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Geometry:        []domain.Coordinates{},
		Steps:           []domain.TurnStep{},
	}

	if r.Geometry != nil {
		ls, ok := r.Geometry.Geometry().(orb.LineString)
		if !ok {
			return nil, fmt.Errorf("osrm: route: unexpected geometry %s", r.Geometry.Type)
		}
		for _, p := range ls {
			out.Geometry = append(out.Geometry, domain.FromPoint(p))
		}
	}

	for _, leg := range r.Legs {
		for _, s := range leg.Steps {
			out.Steps = append(out.Steps, toTurnStep(s))
		}
	}

	return out, nil
}

func toTurnStep(s osrmStep) domain.TurnStep {
	instruction := s.Maneuver.Instruction
	if instruction == "" {
		instruction = "Continue"
	}
	typ := s.Maneuver.Type
	if typ == "" {
		typ = "turn"
	}
	return domain.TurnStep{
		Instruction:     instruction,
		Type:            typ,
		Modifier:        s.Maneuver.Modifier,
		Name:            s.Name,
		DistanceMeters:  s.Distance,
		DurationSeconds: s.Duration,
	}
}

// DistanceMatrix returns the n×n driving distances between coords in kilometers.
func (o *OSRM) DistanceMatrix(ctx context.Context, coords []domain.Coordinates) (_ [][]float64, err error) {
	defer obs.Time(ctx, "osrm.DistanceMatrix")(&err)

	if len(coords) < 2 {
		return nil, ErrTooFewPoints
	}

	endpoint := fmt.Sprintf("%s/table/v1/%s/%s?annotations=distance", o.baseURL, o.profile, coordPath(coords))

	var tr tableResponse
	if err := o.client.GetJSON(ctx, endpoint, &tr); err != nil {
		return nil, fmt.Errorf("osrm: table request: %w", err)
	}
	if tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm: table: %s %s", tr.Code, tr.Message)
	}

	n := len(coords)
	if len(tr.Distances) != n {
		return nil, fmt.Errorf("osrm: table: expected %d rows, got %d", n, len(tr.Distances))
	}

	out := make([][]float64, n)
	for i, row := range tr.Distances {
		if len(row) != n {
			return nil, fmt.Errorf("osrm: table: row %d has %d entries, want %d", i, len(row), n)
		}
		out[i] = make([]float64, n)
		for j, meters := range row {
			if meters == nil {
				return nil, fmt.Errorf("osrm: table: no route from %d to %d", i, j)
			}
			out[i][j] = *meters / 1000.0
		}
	}

	return out, nil
}
