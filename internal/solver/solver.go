// Package solver finds an open path from a fixed start node over a weighted
// matrix. It is an anytime heuristic: a path-cheapest-arc construction followed
// by guided local search bounded by a wall-clock budget.
//
// All search state lives in a value created per Optimize call, so concurrent
// calls never share anything mutable.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"
)

var (
	// ErrNoSolution is returned when no feasible route can be produced.
	ErrNoSolution = errors.New("solver: no solution found")
	// ErrInvalidMatrix is returned for non-square, negative, NaN or oversized weights.
	ErrInvalidMatrix = errors.New("solver: invalid weight matrix")
)

const (
	DefaultTimeLimit   = 2 * time.Second
	DefaultDropPenalty = int64(1_000_000_000_000)
	DefaultScale       = 1000.0
	DefaultMaxStall    = 200

	// maxFixedCost keeps every fixed-point sum well inside int64.
	maxFixedCost = int64(1) << 48
)

// Metaheuristic names accepted by Options.
const (
	GuidedLocalSearch = "guided_local_search"
	LocalSearchOnly   = "none"
)

// Options controls a single solve.
type Options struct {
	// TimeLimit bounds wall-clock search time.
	TimeLimit time.Duration
	// DropPenalty is charged per omitted node, in fixed-point objective units.
	DropPenalty int64
	// Scale converts real weights to fixed-point integers (truncated toward zero).
	Scale float64
	// Metaheuristic is GuidedLocalSearch or LocalSearchOnly.
	Metaheuristic string
	// MaxStall stops guided local search after this many penalization rounds
	// without improving the best solution.
	MaxStall int
}

func (o Options) withDefaults() Options {
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.DropPenalty <= 0 {
		o.DropPenalty = DefaultDropPenalty
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Metaheuristic == "" {
		o.Metaheuristic = GuidedLocalSearch
	}
	if o.MaxStall <= 0 {
		o.MaxStall = DefaultMaxStall
	}
	return o
}

// Result is the best solution found within budget.
type Result struct {
	Route     domain.Route
	Dropped   []int
	Objective float64
	Rounds    int
}

// Optimize solves the open-path problem on weighted starting at start.
func Optimize(ctx context.Context, weighted geo.Matrix, start int, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	n := weighted.Size()
	if n == 0 {
		return nil, fmt.Errorf("optimize: empty matrix: %w", ErrNoSolution)
	}
	if start < 0 || start >= n {
		return nil, fmt.Errorf("optimize: start %d out of range [0,%d): %w", start, n, ErrNoSolution)
	}

	s, err := newSearch(weighted, start, opts)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	deadline := time.Now().Add(opts.TimeLimit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.deadline = deadline
	s.ctx = ctx

	s.construct()
	s.run()

	best := s.best
	if len(best.path) == 0 || best.path[0] != start {
		return nil, ErrNoSolution
	}

	route := make(domain.Route, len(best.path))
	copy(route, best.path)

	var dropped []int
	for v := 0; v < n; v++ {
		if v != start && best.dropped[v] {
			dropped = append(dropped, v)
		}
	}

	return &Result{
		Route:     route,
		Dropped:   dropped,
		Objective: float64(best.objective) / opts.Scale,
		Rounds:    s.rounds,
	}, nil
}

// RouteDistance sums m over consecutive pairs of route. No return leg is added.
func RouteDistance(m geo.Matrix, route domain.Route) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += m[route[i]][route[i+1]]
	}
	return total
}

// Fixed converts a real weight to the solver's fixed-point representation.
func Fixed(w, scale float64) int64 {
	return int64(w * scale)
}

func toFixed(weighted geo.Matrix, scale float64) ([][]int64, bool, error) {
	if err := weighted.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidMatrix, err)
	}

	n := weighted.Size()
	cost := make([][]int64, n)
	for i := range cost {
		cost[i] = make([]int64, n)
		for j, w := range weighted[i] {
			switch {
			case i == j:
				continue
			case math.IsNaN(w) || w < 0:
				return nil, false, fmt.Errorf("%w: weight[%d][%d]=%v", ErrInvalidMatrix, i, j, w)
			case math.IsInf(w, 1):
				cost[i][j] = unreachable
				continue
			}
			c := Fixed(w, scale)
			if c >= maxFixedCost {
				return nil, false, fmt.Errorf("%w: weight[%d][%d]=%v overflows fixed-point range", ErrInvalidMatrix, i, j, w)
			}
			cost[i][j] = c
		}
	}

	symmetric := true
	for i := 0; i < n && symmetric; i++ {
		for j := i + 1; j < n; j++ {
			if cost[i][j] != cost[j][i] {
				symmetric = false
				break
			}
		}
	}

	return cost, symmetric, nil
}
