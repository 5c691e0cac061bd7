package cost

import "math/rand"

// Ranges of the synthetic trip records.
const (
	minDistanceKm, maxDistanceKm = 5.0, 200.0
	minStops, maxStops           = 2, 20
	minSpeed, maxSpeed           = 20.0, 80.0
	minTraffic, maxTraffic       = 1.0, 2.0
	minMPG, maxMPG               = 15.0, 35.0
	minIdle, maxIdle             = 5.0, 60.0
)

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// synthesize draws cfg.Samples trip records priced with the tariff plus
// multiplicative Gaussian noise.
func synthesize(r *rand.Rand, cfg Config) []sample {
	out := make([]sample, cfg.Samples)
	for i := range out {
		distance := uniform(r, minDistanceKm, maxDistanceKm)
		stops := minStops + r.Intn(maxStops-minStops)
		speed := uniform(r, minSpeed, maxSpeed)
		traffic := uniform(r, minTraffic, maxTraffic)
		mpg := uniform(r, minMPG, maxMPG)
		idle := uniform(r, minIdle, maxIdle)

		b := breakdown(cfg, distance, stops, traffic, mpg, idle)
		price := b.FuelCost*traffic + b.IdleCost + b.StopCost + b.BaseFare
		price += r.NormFloat64() * price * cfg.Noise

		out[i] = sample{
			x: [featureCount]float64{distance, float64(stops), speed, traffic, mpg, idle},
			y: price,
		}
	}
	return out
}

// bootstrap draws len(data) samples with replacement.
func bootstrap(r *rand.Rand, data []sample) []sample {
	out := make([]sample, len(data))
	for i := range out {
		out[i] = data[r.Intn(len(data))]
	}
	return out
}
