package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestCoordinatesValid(t *testing.T) {
	cases := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{Lat: 24.86, Lng: 67.01}, true},
		{Coordinates{Lat: 90, Lng: -180}, true},
		{Coordinates{Lat: 90.1, Lng: 0}, false},
		{Coordinates{Lat: 0, Lng: 180.5}, false},
		{Coordinates{Lat: math.NaN(), Lng: 0}, false},
		{Coordinates{Lat: 0, Lng: math.Inf(1)}, false},
	}

	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Fatalf("%v.Valid() = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestCoordinatesPointOrder(t *testing.T) {
	c := Coordinates{Lat: 24.86, Lng: 67.01}

	p := c.Point()
	if p[0] != c.Lng || p[1] != c.Lat {
		t.Fatalf("Point() = %v, want [lng lat]", p)
	}
	if back := FromPoint(p); back != c {
		t.Fatalf("FromPoint(Point()) = %v, want %v", back, c)
	}
}

func TestErrorMessages(t *testing.T) {
	re := &ResolutionError{Address: "nowhere"}
	if got := re.Error(); got != `failed to geocode address "nowhere"` {
		t.Fatalf("ResolutionError.Error() = %q", got)
	}

	cause := errors.New("timeout")
	se := &SolverError{Nodes: 4, Err: cause}
	if got := se.Error(); got != "no feasible route for 4x4 matrix: timeout" {
		t.Fatalf("SolverError.Error() = %q", got)
	}
	if !errors.Is(fmt.Errorf("solve: %w", se), cause) {
		t.Fatalf("SolverError must unwrap to its cause")
	}
}

func TestIsClientError(t *testing.T) {
	if !IsClientError(fmt.Errorf("optimize: %w", &ResolutionError{Address: "nowhere"})) {
		t.Fatalf("wrapped ResolutionError should be a client error")
	}
	if !IsClientError(&ValidationError{Field: "Stops", Reason: "is required"}) {
		t.Fatalf("ValidationError should be a client error")
	}
	if IsClientError(&SolverError{Nodes: 3, Err: errors.New("timeout")}) {
		t.Fatalf("SolverError must not be a client error")
	}
	if IsClientError(errors.New("boom")) {
		t.Fatalf("plain error must not be a client error")
	}
}
