// Package workload generates the guest arrival process of a venue: when guests
// walk in and which kind each one is. Times are simulated milliseconds.
package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ArrivalSpec configures the arrival process.
type ArrivalSpec struct {
	Process       string   `yaml:"process"`         // "poisson", "gamma" or "constant"
	RatePerMinute float64  `yaml:"rate_per_minute"` // mean guests per simulated minute
	CV            *float64 `yaml:"cv,omitempty"`    // gamma only: coefficient of variation
}

var validArrivalProcesses = map[string]bool{"poisson": true, "gamma": true, "constant": true}

// IsValidArrivalProcess reports whether name is a recognized arrival process.
func IsValidArrivalProcess(name string) bool { return validArrivalProcesses[name] }

// Validate checks the process name and rate.
func (s ArrivalSpec) Validate() error {
	if !IsValidArrivalProcess(s.Process) {
		return fmt.Errorf("unknown arrival process %q", s.Process)
	}
	if s.RatePerMinute <= 0 || math.IsNaN(s.RatePerMinute) || math.IsInf(s.RatePerMinute, 0) {
		return fmt.Errorf("rate_per_minute must be a finite positive number, got %v", s.RatePerMinute)
	}
	if s.CV != nil && *s.CV <= 0 {
		return fmt.Errorf("cv must be positive, got %v", *s.CV)
	}
	return nil
}

// ArrivalSampler generates inter-arrival times.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in ms. Always >= 1.
	SampleIAT(rng *rand.Rand) int64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	ratePerMs float64
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) int64 {
	return max(1, int64(rng.ExpFloat64()/s.ratePerMs))
}

// GammaSampler generates Gamma-distributed inter-arrival times. CV > 1 models
// guests arriving in groups.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // CV²/rate, in ms
}

func (s *GammaSampler) SampleIAT(rng *rand.Rand) int64 {
	return max(1, int64(gammaRand(rng, s.shape, s.scale)))
}

// ConstantSampler spaces arrivals evenly.
type ConstantSampler struct {
	interval int64
}

func (s *ConstantSampler) SampleIAT(_ *rand.Rand) int64 {
	return s.interval
}

// gammaRand samples Gamma(shape, scale) with Marsaglia-Tsang; shapes below 1
// use Gamma(a) = Gamma(a+1) * U^(1/a).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// NewArrivalSampler creates the sampler described by spec.
// Returns an error if spec does not validate.
func NewArrivalSampler(spec ArrivalSpec) (ArrivalSampler, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ratePerMs := spec.RatePerMinute / 60_000
	switch spec.Process {
	case "poisson":
		return &PoissonSampler{ratePerMs: ratePerMs}, nil
	case "constant":
		return &ConstantSampler{interval: max(1, int64(math.Round(1/ratePerMs)))}, nil
	case "gamma":
		cv := 1.0
		if spec.CV != nil {
			cv = *spec.CV
		}
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("gamma shape %.4f (CV=%.1f) is very small; falling back to poisson", shape, cv)
			return &PoissonSampler{ratePerMs: ratePerMs}, nil
		}
		return &GammaSampler{shape: shape, scale: cv * cv / ratePerMs}, nil
	default:
		panic(fmt.Sprintf("unhandled arrival process %q", spec.Process))
	}
}
