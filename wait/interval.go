package wait

import (
	"math/rand"
	"time"

	"github.com/probekit/vigil/policy"
)

func nextInterval(current time.Duration, multiplier float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * multiplier)
	if next < 0 {
		next = 0
	}
	if max > 0 && next > max {
		return max
	}
	return next
}

func applyJitter(interval time.Duration, kind policy.Jitter) time.Duration {
	switch kind {
	case policy.JitterNone, "":
		return interval
	case policy.JitterFull:
		return time.Duration(rand.Float64() * float64(interval))
	case policy.JitterEqual:
		half := float64(interval) / 2
		return time.Duration(half + rand.Float64()*half)
	default:
		return interval
	}
}
