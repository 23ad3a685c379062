package filter

import (
	"math/rand"

	"github.com/vidinsight-labs/microlog/record"
)

// Sampling drops a configurable fraction of records, with optional
// per-severity overrides (typically used to sample DEBUG/INFO aggressively
// while always keeping ERROR/CRITICAL).
type Sampling struct {
	// Rate is the default pass probability, 0.0 (drop all) to 1.0 (keep
	// all).
	Rate float64
	// Overrides maps a severity to its own pass probability, taking
	// precedence over Rate.
	Overrides map[record.Severity]float64
	// rand is overridable for deterministic tests; nil uses the package
	// default source.
	rand func() float64
}

// NewSampling validates rate and overrides are within [0.0, 1.0].
func NewSampling(rate float64, overrides map[record.Severity]float64) (*Sampling, error) {
	if rate < 0 || rate > 1 {
		return nil, &RangeError{Field: "sample_rate", Value: rate}
	}
	for sev, r := range overrides {
		if r < 0 || r > 1 {
			return nil, &RangeError{Field: sev.String(), Value: r}
		}
	}
	return &Sampling{Rate: rate, Overrides: overrides}, nil
}

func (s *Sampling) Apply(r record.Record) (record.Record, bool) {
	rate := s.Rate
	if s.Overrides != nil {
		if or, ok := s.Overrides[r.Severity]; ok {
			rate = or
		}
	}
	variate := rand.Float64()
	if s.rand != nil {
		variate = s.rand()
	}
	return r, variate < rate
}

// RangeError reports a configuration value outside its valid [0.0, 1.0]
// range.
type RangeError struct {
	Field string
	Value float64
}

func (e *RangeError) Error() string {
	return "filter: " + e.Field + " must be within 0.0-1.0"
}
