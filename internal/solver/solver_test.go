package solver

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/geo"
)

func lineMatrix(xs ...float64) geo.Matrix {
	m := geo.NewMatrix(len(xs))
	for i := range xs {
		for j := range xs {
			m[i][j] = math.Abs(xs[i] - xs[j])
		}
	}
	return m
}

func randomMatrix(n int, seed int64) geo.Matrix {
	r := rand.New(rand.NewSource(seed))
	pts := make([][2]float64, n)
	for i := range pts {
		pts[i] = [2]float64{r.Float64() * 50, r.Float64() * 50}
	}
	m := geo.NewMatrix(n)
	for i := range pts {
		for j := range pts {
			m[i][j] = math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])
		}
	}
	return m
}

func fastOpts() Options {
	return Options{TimeLimit: 500 * time.Millisecond}
}

func assertValidRoute(t *testing.T, route domain.Route, n, start int) {
	t.Helper()
	require.NotEmpty(t, route)
	assert.Equal(t, start, route[0])
	assert.LessOrEqual(t, len(route), n)
	seen := map[int]bool{}
	for _, v := range route {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, n)
		assert.False(t, seen[v], "node %d visited twice", v)
		seen[v] = true
	}
}

func TestOptimize_CollinearStops(t *testing.T) {
	m := lineMatrix(0, 5, 12, 20)

	res, err := Optimize(context.Background(), m, 0, fastOpts())
	require.NoError(t, err)

	assert.Equal(t, domain.Route{0, 1, 2, 3}, res.Route)
	assert.Empty(t, res.Dropped)
	assert.InDelta(t, 20.0, RouteDistance(m, res.Route), 1e-9)
	assert.InDelta(t, 20.0, res.Objective, 1e-9)
}

func TestOptimize_ImprovesOnGreedyConstruction(t *testing.T) {
	// Greedy from 0 goes to 1 first and then has to come back past 0.
	m := lineMatrix(0, 1, -2, 10)

	res, err := Optimize(context.Background(), m, 0, fastOpts())
	require.NoError(t, err)

	assert.Equal(t, domain.Route{0, 2, 1, 3}, res.Route)
	assert.InDelta(t, 14.0, RouteDistance(m, res.Route), 1e-9)
}

func TestOptimize_SingleNode(t *testing.T) {
	res, err := Optimize(context.Background(), geo.NewMatrix(1), 0, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, domain.Route{0}, res.Route)
	assert.Zero(t, res.Objective)
}

func TestOptimize_NonZeroStart(t *testing.T) {
	m := lineMatrix(0, 5, 12, 20)

	res, err := Optimize(context.Background(), m, 3, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, domain.Route{3, 2, 1, 0}, res.Route)
}

func TestOptimize_RouteInvariants(t *testing.T) {
	for _, n := range []int{2, 3, 7, 15, 30} {
		m := randomMatrix(n, int64(n))
		res, err := Optimize(context.Background(), m, 0, Options{TimeLimit: 200 * time.Millisecond})
		require.NoError(t, err)
		assertValidRoute(t, res.Route, n, 0)
		assert.Len(t, res.Route, n, "default penalty should keep every reachable node")
	}
}

func TestOptimize_NotWorseThanConstruction(t *testing.T) {
	m := randomMatrix(25, 7)

	s, err := newSearch(m, 0, Options{}.withDefaults())
	require.NoError(t, err)
	s.construct()
	greedy := s.best.objective

	res, err := Optimize(context.Background(), m, 0, Options{TimeLimit: 300 * time.Millisecond})
	require.NoError(t, err)
	assert.LessOrEqual(t, Fixed(res.Objective, DefaultScale), greedy)
}

func TestOptimize_RespectsTimeLimit(t *testing.T) {
	m := randomMatrix(80, 3)

	begin := time.Now()
	res, err := Optimize(context.Background(), m, 0, Options{TimeLimit: 100 * time.Millisecond, MaxStall: 1 << 30})
	require.NoError(t, err)

	assert.Less(t, time.Since(begin), 2*time.Second)
	assertValidRoute(t, res.Route, 80, 0)
}

func TestOptimize_CancelledContextStillReturnsConstruction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := lineMatrix(0, 5, 12, 20)
	res, err := Optimize(ctx, m, 0, fastOpts())
	require.NoError(t, err)
	assertValidRoute(t, res.Route, 4, 0)
}

func TestOptimize_DropsUnreachableNode(t *testing.T) {
	m := lineMatrix(0, 1, 2)
	m[0][2], m[2][0] = math.Inf(1), math.Inf(1)
	m[1][2], m[2][1] = math.Inf(1), math.Inf(1)

	res, err := Optimize(context.Background(), m, 0, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, domain.Route{0, 1}, res.Route)
	assert.Equal(t, []int{2}, res.Dropped)
	assert.InDelta(t, 1+float64(DefaultDropPenalty)/DefaultScale, res.Objective, 1e-9)
}

func TestOptimize_DefaultPenaltyKeepsLongArcs(t *testing.T) {
	// Karachi to Lahore at peak traffic, weighted.
	m := lineMatrix(0, 1549.5, 3100)

	res, err := Optimize(context.Background(), m, 0, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, domain.Route{0, 1, 2}, res.Route)
	assert.Empty(t, res.Dropped)
}

func TestOptimize_DropsNodeWhenPenaltyIsCheaper(t *testing.T) {
	m := lineMatrix(0, 1, 2, 1000)

	res, err := Optimize(context.Background(), m, 0, Options{
		TimeLimit:   200 * time.Millisecond,
		DropPenalty: Fixed(100, DefaultScale),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Route{0, 1, 2}, res.Route)
	assert.Equal(t, []int{3}, res.Dropped)
}

func TestOptimize_LocalSearchOnly(t *testing.T) {
	m := lineMatrix(0, 1, -2, 10)

	res, err := Optimize(context.Background(), m, 0, Options{Metaheuristic: LocalSearchOnly})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rounds)
	assert.InDelta(t, 14.0, RouteDistance(m, res.Route), 1e-9)
}

func TestOptimize_AsymmetricMatrix(t *testing.T) {
	m := lineMatrix(0, 5, 12, 20)
	// Make the forward direction expensive so the reverse order wins.
	for i := range m {
		for j := range m {
			if j > i && i > 0 {
				m[i][j] *= 10
			}
		}
	}

	res, err := Optimize(context.Background(), m, 0, fastOpts())
	require.NoError(t, err)
	assertValidRoute(t, res.Route, 4, 0)
	assert.Equal(t, domain.Route{0, 3, 2, 1}, res.Route)
}

func TestOptimize_Errors(t *testing.T) {
	_, err := Optimize(context.Background(), geo.Matrix{}, 0, fastOpts())
	assert.ErrorIs(t, err, ErrNoSolution)

	_, err = Optimize(context.Background(), lineMatrix(0, 1), 2, fastOpts())
	assert.ErrorIs(t, err, ErrNoSolution)

	_, err = Optimize(context.Background(), geo.Matrix{{0, 1}, {1}}, 0, fastOpts())
	assert.ErrorIs(t, err, ErrInvalidMatrix)

	m := lineMatrix(0, 1)
	m[0][1] = -1
	_, err = Optimize(context.Background(), m, 0, fastOpts())
	assert.ErrorIs(t, err, ErrInvalidMatrix)

	m[0][1] = math.NaN()
	_, err = Optimize(context.Background(), m, 0, fastOpts())
	assert.ErrorIs(t, err, ErrInvalidMatrix)
}

func TestOptimize_FixedPointTruncation(t *testing.T) {
	assert.Equal(t, int64(1234), Fixed(1.2349, 1000))
	assert.Equal(t, int64(0), Fixed(0.0009, 1000))
}

func TestOptimize_ConcurrentCallsAreIsolated(t *testing.T) {
	m := randomMatrix(20, 11)
	want, err := Optimize(context.Background(), m, 0, Options{Metaheuristic: LocalSearchOnly})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]domain.Route, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := Optimize(context.Background(), m, 0, Options{Metaheuristic: LocalSearchOnly})
			if err == nil {
				results[i] = res.Route
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want.Route, r)
	}
	assert.Equal(t, randomMatrix(20, 11), m, "input matrix must not be mutated")
}

func TestMoveSegment(t *testing.T) {
	p := []int{0, 1, 2, 3, 4, 5}
	assert.Equal(t, []int{0, 3, 4, 1, 2, 5}, moveSegment(p, 1, 2, 4))
	assert.Equal(t, []int{0, 4, 1, 2, 3, 5}, moveSegment(p, 4, 4, 0))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, p)
}

func TestRouteDistance(t *testing.T) {
	m := lineMatrix(0, 5, 12, 20)
	assert.InDelta(t, 0.0, RouteDistance(m, domain.Route{2}), 1e-12)
	assert.InDelta(t, 20.0, RouteDistance(m, domain.Route{0, 1, 2, 3}), 1e-12)
	assert.InDelta(t, 34.0, RouteDistance(m, domain.Route{0, 2, 1, 3}), 1e-12)
}
