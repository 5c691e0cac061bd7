package geo

import (
	"errors"
	"fmt"

	"delivery-route-optimizer/internal/domain"
)

// ErrNotSquare is returned when a matrix is not n×n.
var ErrNotSquare = errors.New("geo: matrix is not square")

// Matrix is a dense n×n matrix of non-negative kilometers (or weighted kilometers).
type Matrix [][]float64

// NewMatrix allocates a zeroed n×n matrix.
func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Size returns n for an n×n matrix.
func (m Matrix) Size() int { return len(m) }

// Validate checks that m is square.
func (m Matrix) Validate() error {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotSquare, i, len(row), n)
		}
	}
	return nil
}

// DistanceMatrix computes the symmetric haversine matrix with a zero diagonal.
func DistanceMatrix(coords []domain.Coordinates) Matrix {
	n := len(coords)
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(coords[i], coords[j])
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}
