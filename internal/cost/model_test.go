package cost

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-route-optimizer/internal/domain"
)

var (
	modelOnce sync.Once
	shared    *Model
	sharedErr error
)

// testModel trains one small ensemble for the whole package.
func testModel(t *testing.T) *Model {
	t.Helper()
	modelOnce.Do(func() {
		cfg := DefaultConfig()
		cfg.Trees = 20
		cfg.Samples = 600
		shared, sharedErr = Train(context.Background(), cfg)
	})
	require.NoError(t, sharedErr)
	return shared
}

func features(distance float64, stops int) domain.TripFeatures {
	return domain.TripFeatures{
		DistanceKm:    distance,
		StopCount:     stops,
		AvgSpeedKmh:   50,
		TrafficFactor: 1.5,
		EfficiencyMPG: 25,
	}
}

func TestPredict_Bounds(t *testing.T) {
	m := testModel(t)

	for _, f := range []domain.TripFeatures{
		features(10, 3),
		features(120, 12),
		features(500, 40),
		features(0, 0),
	} {
		est := m.Predict(f)
		assert.GreaterOrEqual(t, est.ConfidenceLower, 0.0)
		assert.LessOrEqual(t, est.ConfidenceLower, est.PredictedCost)
		assert.LessOrEqual(t, est.PredictedCost, est.ConfidenceUpper)
	}
}

func TestPredict_ZeroTripIsAtLeastBaseFare(t *testing.T) {
	m := testModel(t)

	est := m.Predict(features(0, 0))
	assert.GreaterOrEqual(t, est.PredictedCost, m.Config().BaseFare)
	assert.Equal(t, m.Config().BaseFare, est.Breakdown.BaseFare)
	assert.Zero(t, est.Breakdown.FuelLiters)
	assert.Zero(t, est.Breakdown.StopCost)
}

func TestPredict_LongerTripsCostMore(t *testing.T) {
	m := testModel(t)

	short := m.Predict(features(20, 5))
	long := m.Predict(features(180, 5))
	assert.Greater(t, long.PredictedCost, short.PredictedCost)
}

func TestPredict_IsDeterministic(t *testing.T) {
	m := testModel(t)
	f := features(75, 8)
	assert.Equal(t, m.Predict(f), m.Predict(f))
}

func TestTrain_Fits(t *testing.T) {
	m := testModel(t)
	assert.Greater(t, m.TrainR2, 0.9)
	assert.Greater(t, m.TestR2, 0.7)
}

func TestTrain_Reproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trees = 5
	cfg.Samples = 200

	a, err := Train(context.Background(), cfg)
	require.NoError(t, err)
	b, err := Train(context.Background(), cfg)
	require.NoError(t, err)

	f := features(60, 6)
	assert.Equal(t, a.Predict(f), b.Predict(f))
}

func TestTrain_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trees = 0
	_, err := Train(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.TestFraction = 1
	_, err = Train(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTrain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBreakdown(t *testing.T) {
	m := &Model{cfg: DefaultConfig()}
	idle := 30.0
	b := m.Breakdown(domain.TripFeatures{
		DistanceKm:    42.5,
		StopCount:     4,
		TrafficFactor: 1.5,
		EfficiencyMPG: 10,
		IdleMinutes:   &idle,
	})

	assert.InDelta(t, 10.0, b.FuelLiters, 1e-9)
	assert.InDelta(t, 2680.0, b.FuelCost, 1e-9)
	assert.InDelta(t, 1340.0, b.TrafficPenalty, 1e-9)
	assert.InDelta(t, 25.0, b.IdleCost, 1e-9)
	assert.InDelta(t, 120.0, b.StopCost, 1e-9)
	assert.InDelta(t, 150.0, b.BaseFare, 1e-9)
}

func TestBreakdown_DefaultIdleTime(t *testing.T) {
	m := &Model{cfg: DefaultConfig()}
	b := m.Breakdown(features(10, 4))
	// 4 stops × 3 min = 12 min at 50/hour.
	assert.InDelta(t, 10.0, b.IdleCost, 1e-9)
}

func TestTree_SplitsOnInformativeFeature(t *testing.T) {
	var data []sample
	for i := 0; i < 40; i++ {
		s := sample{y: 1}
		s.x[2] = float64(i)
		if i >= 20 {
			s.y = 9
		}
		data = append(data, s)
	}

	tr := growTree(data, treeParams{maxDepth: 3, minSplit: 2})
	require.Equal(t, 2, tr.root.feature)
	assert.InDelta(t, 19.5, tr.root.threshold, 1e-12)

	var lo, hi [featureCount]float64
	lo[2], hi[2] = 3, 33
	assert.Equal(t, 1.0, tr.predict(lo))
	assert.Equal(t, 9.0, tr.predict(hi))
}

func TestTree_ConstantTargetIsLeaf(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	data := make([]sample, 30)
	for i := range data {
		data[i].x[0] = r.Float64()
		data[i].y = 4
	}
	tr := growTree(data, treeParams{maxDepth: 10, minSplit: 2})
	assert.Equal(t, -1, tr.root.feature)
	assert.Equal(t, 4.0, tr.root.value)
}
