// Package filter implements the crosscutting record filters: redaction
// (a transformer), sampling and rate-limiting (predicates). A logger
// applies its filter chain in configured order before fan-out to sinks.
package filter

import "github.com/vidinsight-labs/microlog/record"

// Filter inspects, and optionally rewrites, a record before it reaches any
// sink. Returning ok=false drops the record entirely; the chain short-
// circuits on the first drop. A pure predicate (Sampling, RateLimit)
// returns its input record unchanged when ok is true; a transformer
// (Redaction) always returns ok=true and may return a modified record.
type Filter interface {
	Apply(r record.Record) (out record.Record, ok bool)
}

// Chain applies filters in order, short-circuiting on the first drop.
type Chain []Filter

func (c Chain) Apply(r record.Record) (record.Record, bool) {
	for _, f := range c {
		var ok bool
		r, ok = f.Apply(r)
		if !ok {
			return r, false
		}
	}
	return r, true
}
