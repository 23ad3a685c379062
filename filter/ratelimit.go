package filter

import (
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/vidinsight-labs/microlog/record"
)

// KeyFunc derives a rate-limit bucket key from a record. The default
// groups by severity and the first 50 characters of the message, mirroring
// the intent of "don't flood the log with the same complaint."
type KeyFunc func(r record.Record) string

func defaultKeyFunc(r record.Record) string {
	msg := r.Message
	if len(msg) > 50 {
		msg = msg[:50]
	}
	return r.Severity.String() + ":" + msg
}

// RateLimit drops records once a per-key sliding-window budget is
// exhausted, built atop catrate.Limiter — whose own background cleanup
// worker evicts inactive keys, which is what keeps the key table bounded
// without a separate LRU on this side.
type RateLimit struct {
	limiter *catrate.Limiter
	keyFunc KeyFunc
}

// NewRateLimit allows maxPerInterval events per key within interval; a
// zero or negative interval or non-positive max disables the limiter
// (every record passes).
func NewRateLimit(maxPerInterval int, interval time.Duration, keyFunc KeyFunc) *RateLimit {
	if keyFunc == nil {
		keyFunc = defaultKeyFunc
	}
	if maxPerInterval <= 0 || interval <= 0 {
		return &RateLimit{keyFunc: keyFunc}
	}
	return &RateLimit{
		limiter: catrate.NewLimiter(map[time.Duration]int{interval: maxPerInterval}),
		keyFunc: keyFunc,
	}
}

func (rl *RateLimit) Apply(r record.Record) (record.Record, bool) {
	if rl.limiter == nil {
		return r, true
	}
	_, ok := rl.limiter.Allow(rl.keyFunc(r))
	return r, ok
}
