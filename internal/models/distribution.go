package models

import (
	"math"
	"math/rand/v2"
)

// DistributionKind identifies which sampler a Distribution uses.
type DistributionKind string

const (
	DistributionNormal    DistributionKind = "normal"     // mean + std_dev * N(0,1)
	DistributionLogNormal DistributionKind = "log_normal" // exp(location + scale * N(0,1))
)

// Source produces standard normal variates. *rand.Rand satisfies it, so a
// seeded generator can be injected for reproducible runs.
type Source interface {
	NormFloat64() float64
}

// globalSource draws from the process-wide generator.
type globalSource struct{}

func (globalSource) NormFloat64() float64 { return rand.NormFloat64() }

// Distribution is a tagged numeric sampler used for latency and failure rate.
// Parameters are only checked when sampling: values read from topology files
// may be invalid, in which case Sample returns the location parameter.
type Distribution struct {
	Kind DistributionKind `json:"kind" yaml:"kind"`

	// Normal parameters
	Mean   float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev float64 `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`

	// Log-normal parameters
	Location float64 `json:"location,omitempty" yaml:"location,omitempty"`
	Scale    float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Normal returns a normal distribution.
func Normal(mean, stdDev float64) Distribution {
	return Distribution{Kind: DistributionNormal, Mean: mean, StdDev: stdDev}
}

// LogNormal returns a log-normal distribution parameterised by the mean
// (location) and standard deviation (scale) of the underlying normal.
func LogNormal(location, scale float64) Distribution {
	return Distribution{Kind: DistributionLogNormal, Location: location, Scale: scale}
}

// Fallback returns the location parameter Sample degrades to: the mean of a
// normal, the location of a log-normal.
func (d Distribution) Fallback() float64 {
	switch d.Kind {
	case DistributionNormal:
		return d.Mean
	case DistributionLogNormal:
		return d.Location
	default:
		return 0
	}
}

// Valid reports whether Sample will draw from the generator rather than
// returning the location parameter.
func (d Distribution) Valid() bool {
	switch d.Kind {
	case DistributionNormal:
		return finite(d.Mean) && finite(d.StdDev) && d.StdDev > 0
	case DistributionLogNormal:
		return finite(d.Location) && finite(d.Scale) && d.Scale > 0
	default:
		return false
	}
}

// Sample draws one value. It never fails: invalid parameters yield Fallback().
// A nil src uses the process-wide generator.
func (d Distribution) Sample(src Source) float64 {
	if !d.Valid() {
		return d.Fallback()
	}
	if src == nil {
		src = globalSource{}
	}

	z := src.NormFloat64()
	switch d.Kind {
	case DistributionLogNormal:
		return math.Exp(d.Location + d.Scale*z)
	default:
		return d.Mean + d.StdDev*z
	}
}

// String renders the distribution for status output.
func (d Distribution) String() string {
	switch d.Kind {
	case DistributionNormal:
		return "Normal(" + formatFloat(d.Mean) + ", " + formatFloat(d.StdDev) + ")"
	case DistributionLogNormal:
		return "LogNormal(" + formatFloat(d.Location) + ", " + formatFloat(d.Scale) + ")"
	default:
		return "Unknown"
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
