package config

import (
	"time"

	"delivery-route-optimizer/internal/cost"
	"delivery-route-optimizer/internal/solver"
)

func applyDefaults(cfg *Config) {
	if cfg.Env.ServiceName == "" {
		cfg.Env.ServiceName = "delivery-route-optimizer"
	}

	h := &cfg.HTTP
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.MaxBodyBytes == 0 {
		h.MaxBodyBytes = 1 << 20
	}
	setDuration(&h.Timeouts.ReadHeaderTimeout, 5*time.Second)
	setDuration(&h.Timeouts.ReadTimeout, 10*time.Second)
	setDuration(&h.Timeouts.WriteTimeout, 120*time.Second)
	setDuration(&h.Timeouts.IdleTimeout, 60*time.Second)

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	setDuration(&cfg.Redis.TTL, 30*24*time.Hour)
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "geocode:"
	}

	g := &cfg.Geocoder
	if g.Provider == "" {
		g.Provider = "static"
	}
	if g.BaseURL == "" {
		switch g.Provider {
		case "nominatim":
			g.BaseURL = "https://nominatim.openstreetmap.org"
		case "ors":
			g.BaseURL = "https://api.openrouteservice.org"
		}
	}
	if g.UserAgent == "" {
		g.UserAgent = "delivery-route-optimizer"
	}
	setDuration(&g.Timeout, 15*time.Second)
	if g.Attempts == 0 {
		g.Attempts = 3
	}

	r := &cfg.Road
	if r.Provider == "" {
		r.Provider = "none"
	}
	if r.BaseURL == "" {
		r.BaseURL = "http://router.project-osrm.org"
	}
	if r.Profile == "" {
		r.Profile = "driving"
	}
	setDuration(&r.Timeout, 30*time.Second)

	e := &cfg.Explainer
	if e.Provider == "" {
		e.Provider = "none"
	}
	setDuration(&e.Timeout, 30*time.Second)

	if cfg.Risk.ZonesPath == "" {
		cfg.Risk.ZonesPath = "data/risk_zones.json"
	}
	if cfg.Risk.Intersection == "" {
		cfg.Risk.Intersection = "approximate"
	}

	s := &cfg.Solver
	setDuration(&s.TimeLimit, 2*time.Second)
	if s.DropPenalty == 0 {
		s.DropPenalty = solver.DefaultDropPenalty
	}
	if s.Scale == 0 {
		s.Scale = 1000
	}
	if s.Metaheuristic == "" {
		s.Metaheuristic = "guided_local_search"
	}

	applyCostDefaults(&cfg.Cost)

	p := &cfg.Pipeline
	setFloat(&p.PeakTrafficFactor, 1.5)
	setFloat(&p.AvoidPeakTraffic, 1.1)
	setFloat(&p.PeakSpeedKmh, 50)
	setFloat(&p.AvoidPeakSpeedKmh, 65)
	setFloat(&p.SafetyExponent, 1.5)
	setFloat(&p.OffPeakTrafficFactor, 0.9)
	setFloat(&p.OffPeakSpeedKmh, 65)
	setFloat(&p.StrategySpeedKmh, 50)
	setDuration(&p.HistoryTimeout, 5*time.Second)
}

func applyCostDefaults(c *cost.Config) {
	d := cost.DefaultConfig()
	setInt(&c.Trees, d.Trees)
	setInt(&c.MaxDepth, d.MaxDepth)
	setInt(&c.MinSplit, d.MinSplit)
	setInt(&c.Samples, d.Samples)
	setFloat(&c.TestFraction, d.TestFraction)
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	setFloat(&c.Noise, d.Noise)
	setFloat(&c.MPGToKmPerLiter, d.MPGToKmPerLiter)
	setFloat(&c.FuelPricePerLiter, d.FuelPricePerLiter)
	setFloat(&c.IdleRatePerHour, d.IdleRatePerHour)
	setFloat(&c.PerStopRate, d.PerStopRate)
	setFloat(&c.BaseFare, d.BaseFare)
}

func setDuration(d *time.Duration, v time.Duration) {
	if *d == 0 {
		*d = v
	}
}

func setFloat(f *float64, v float64) {
	if *f == 0 {
		*f = v
	}
}

func setInt(i *int, v int) {
	if *i == 0 {
		*i = v
	}
}
