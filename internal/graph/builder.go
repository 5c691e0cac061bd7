// Package graph builds the base and factor-weighted distance matrices the
// routing solver works on.
package graph

import (
	"errors"
	"fmt"
	"math"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"
)

// ErrFactorCount is returned when per-node factors do not match the node count.
var ErrFactorCount = errors.New("graph: factor count does not match node count")

// Graph is the per-request pair of matrices over the same nodes.
// Base holds true distances; Weighted only biases the solver.
type Graph struct {
	Nodes    []domain.Node
	Base     geo.Matrix
	Weighted geo.Matrix
}

// Factors are optional per-node multipliers. Nil slices default to 1.0 per node.
type Factors struct {
	Traffic []float64
	Risk    []float64
}

// Build computes the haversine base matrix for nodes, or uses base when the caller
// supplies one (e.g. from a road-distance provider), then derives the weighted matrix.
func Build(nodes []domain.Node, base geo.Matrix, factors Factors) (*Graph, error) {
	n := len(nodes)
	if base == nil {
		base = geo.DistanceMatrix(domain.NodeCoordinates(nodes))
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	if base.Size() != n {
		return nil, fmt.Errorf("build graph: base matrix is %dx%d for %d nodes: %w", base.Size(), base.Size(), n, geo.ErrNotSquare)
	}

	weighted, err := Weighted(base, factors.Traffic, factors.Risk)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	return &Graph{Nodes: nodes, Base: base, Weighted: weighted}, nil
}

// Weighted returns base[i][j] × mean(traffic[i],traffic[j]) × mean(risk[i],risk[j])
// for i != j, with a zero diagonal.
func Weighted(base geo.Matrix, traffic, risk []float64) (geo.Matrix, error) {
	n := base.Size()
	traffic, err := defaults(traffic, n)
	if err != nil {
		return nil, fmt.Errorf("traffic factors: %w", err)
	}
	risk, err = defaults(risk, n)
	if err != nil {
		return nil, fmt.Errorf("risk factors: %w", err)
	}

	out := geo.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			avgTraffic := (traffic[i] + traffic[j]) / 2
			avgRisk := (risk[i] + risk[j]) / 2
			out[i][j] = base[i][j] * avgTraffic * avgRisk
		}
	}
	return out, nil
}

// SquaredRisk weights base by the square of the averaged node risk factors,
// ignoring traffic. It is used by the safest strategy.
func SquaredRisk(base geo.Matrix, risk []float64) (geo.Matrix, error) {
	n := base.Size()
	risk, err := defaults(risk, n)
	if err != nil {
		return nil, fmt.Errorf("risk factors: %w", err)
	}

	out := geo.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			avg := (risk[i] + risk[j]) / 2
			out[i][j] = base[i][j] * avg * avg
		}
	}
	return out, nil
}

// AmplifyRisk raises each factor to exponent. Callers use exponents > 1 to bias
// the weighted graph toward risk avoidance.
func AmplifyRisk(factors []float64, exponent float64) []float64 {
	out := make([]float64, len(factors))
	for i, f := range factors {
		out[i] = math.Pow(f, exponent)
	}
	return out
}

// Uniform returns n copies of v.
func Uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func defaults(factors []float64, n int) ([]float64, error) {
	if factors == nil {
		return Uniform(n, 1.0), nil
	}
	if len(factors) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFactorCount, len(factors), n)
	}
	return factors, nil
}
