// Package cost estimates trip cost with a bagged ensemble of regression trees
// trained on synthetic trip records. Per-tree predictions give the spread used
// for the confidence interval; the itemized breakdown is computed analytically.
package cost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"delivery-route-optimizer/internal/domain"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// IdleMinutesPerStop is the idle time assumed when none is supplied.
const IdleMinutesPerStop = 3.0

// ErrInvalidConfig is returned by Train for unusable settings.
var ErrInvalidConfig = errors.New("cost: invalid config")

// Config holds ensemble hyperparameters and the tariff constants shared by the
// synthetic data generator and the breakdown.
type Config struct {
	Trees        int     `koanf:"trees" validate:"gt=0"`
	MaxDepth     int     `koanf:"maxDepth" validate:"gt=0"`
	MinSplit     int     `koanf:"minSplit" validate:"gte=2"`
	Samples      int     `koanf:"samples" validate:"gt=0"`
	TestFraction float64 `koanf:"testFraction" validate:"gte=0,lt=1"`
	Seed         int64   `koanf:"seed"`
	Noise        float64 `koanf:"noise" validate:"gte=0"`

	MPGToKmPerLiter   float64 `koanf:"mpgToKmPerLiter" validate:"gt=0"`
	FuelPricePerLiter float64 `koanf:"fuelPricePerLiter" validate:"gt=0"`
	IdleRatePerHour   float64 `koanf:"idleRatePerHour" validate:"gte=0"`
	PerStopRate       float64 `koanf:"perStopRate" validate:"gte=0"`
	BaseFare          float64 `koanf:"baseFare" validate:"gte=0"`
}

// DefaultConfig mirrors the tariff the model was originally calibrated on.
func DefaultConfig() Config {
	return Config{
		Trees:        100,
		MaxDepth:     15,
		MinSplit:     5,
		Samples:      2000,
		TestFraction: 0.2,
		Seed:         42,
		Noise:        0.05,

		MPGToKmPerLiter:   0.425,
		FuelPricePerLiter: 268,
		IdleRatePerHour:   50,
		PerStopRate:       30,
		BaseFare:          150,
	}
}

func (c Config) validate() error {
	switch {
	case c.Trees <= 0:
		return fmt.Errorf("%w: trees must be positive", ErrInvalidConfig)
	case c.MaxDepth <= 0:
		return fmt.Errorf("%w: max depth must be positive", ErrInvalidConfig)
	case c.MinSplit < 2:
		return fmt.Errorf("%w: min split must be at least 2", ErrInvalidConfig)
	case c.Samples <= 0:
		return fmt.Errorf("%w: samples must be positive", ErrInvalidConfig)
	case c.TestFraction < 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test fraction must be in [0,1)", ErrInvalidConfig)
	case c.MPGToKmPerLiter <= 0 || c.FuelPricePerLiter <= 0:
		return fmt.Errorf("%w: fuel constants must be positive", ErrInvalidConfig)
	}
	return nil
}

// Model is immutable after Train and safe for concurrent Predict calls.
type Model struct {
	cfg   Config
	trees []*tree

	TrainR2 float64
	TestR2  float64
}

// Train generates the synthetic records and fits the ensemble.
// Each tree is grown on its own bootstrap sample with a seed derived from
// cfg.Seed, so training is reproducible regardless of scheduling.
func Train(ctx context.Context, cfg Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	data := synthesize(rng, cfg)
	rng.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })

	nTest := int(float64(len(data)) * cfg.TestFraction)
	test, train := data[:nTest], data[nTest:]
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: no training samples after split", ErrInvalidConfig)
	}

	trees := make([]*tree, cfg.Trees)
	params := treeParams{maxDepth: cfg.MaxDepth, minSplit: cfg.MinSplit}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := rand.New(rand.NewSource(cfg.Seed + int64(i) + 1))
			trees[i] = growTree(bootstrap(r, train), params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("train cost model: %w", err)
	}

	m := &Model{cfg: cfg, trees: trees}
	m.TrainR2 = m.rSquared(train)
	if len(test) > 0 {
		m.TestR2 = m.rSquared(test)
	}
	return m, nil
}

// Config returns the settings the model was trained with.
func (m *Model) Config() Config { return m.cfg }

// Predict returns the ensemble mean with a 95% interval and the analytic
// breakdown. The lower bound never goes below zero and the point estimate
// never goes below the base fare.
func (m *Model) Predict(f domain.TripFeatures) domain.CostEstimate {
	idle := idleMinutes(f)
	x := featureVector(f, idle)

	preds := make([]float64, len(m.trees))
	for i, t := range m.trees {
		preds[i] = t.predict(x)
	}
	mean, std := stat.PopMeanStdDev(preds, nil)

	lower := math.Max(0, mean-z95*std)
	upper := mean + z95*std

	predicted := math.Max(mean, m.cfg.BaseFare)
	if predicted > upper {
		upper = predicted
	}

	return domain.CostEstimate{
		PredictedCost:   predicted,
		ConfidenceLower: lower,
		ConfidenceUpper: upper,
		Breakdown:       m.Breakdown(f),
	}
}

// Breakdown itemizes cost from the tariff constants alone.
func (m *Model) Breakdown(f domain.TripFeatures) domain.CostBreakdown {
	return breakdown(m.cfg, f.DistanceKm, f.StopCount, f.TrafficFactor, f.EfficiencyMPG, idleMinutes(f))
}

func breakdown(cfg Config, distanceKm float64, stops int, traffic, mpg, idle float64) domain.CostBreakdown {
	var liters float64
	if mpg > 0 {
		liters = distanceKm / (mpg * cfg.MPGToKmPerLiter)
	}
	fuel := liters * cfg.FuelPricePerLiter
	return domain.CostBreakdown{
		FuelLiters:     liters,
		FuelCost:       fuel,
		TrafficPenalty: fuel * (traffic - 1),
		IdleCost:       idle / 60 * cfg.IdleRatePerHour,
		StopCost:       float64(stops) * cfg.PerStopRate,
		BaseFare:       cfg.BaseFare,
	}
}

func idleMinutes(f domain.TripFeatures) float64 {
	if f.IdleMinutes != nil {
		return *f.IdleMinutes
	}
	return IdleMinutesPerStop * float64(f.StopCount)
}

func featureVector(f domain.TripFeatures, idle float64) [featureCount]float64 {
	return [featureCount]float64{
		f.DistanceKm,
		float64(f.StopCount),
		f.AvgSpeedKmh,
		f.TrafficFactor,
		f.EfficiencyMPG,
		idle,
	}
}

func (m *Model) rSquared(data []sample) float64 {
	est := make([]float64, len(data))
	obs := make([]float64, len(data))
	for i, s := range data {
		sum := 0.0
		for _, t := range m.trees {
			sum += t.predict(s.x)
		}
		est[i] = sum / float64(len(m.trees))
		obs[i] = s.y
	}
	return stat.RSquaredFrom(est, obs, nil)
}
