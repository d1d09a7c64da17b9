package resilience

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultJitterPercent is the randomization applied to reconnect delays.
const DefaultJitterPercent = 0.25

// Backoff returns min(base * 2^attempt, max). Negative attempts count as 0.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(base) * math.Pow(2, float64(attempt))
	if math.IsInf(d, 0) || d >= float64(max) {
		return max
	}
	return time.Duration(d)
}

// Jitter returns delay shifted by up to ±percent of itself, rounded to the
// nearest millisecond. percent is clamped to [0, 1]; 0 only rounds.
func Jitter(delay time.Duration, percent float64) time.Duration {
	return jitter(delay, percent, rand.Float64)
}

// BackoffWithJitter applies the cap before jitter, so the result can exceed
// max by up to percent*max.
func BackoffWithJitter(attempt int, base, max time.Duration, percent float64) time.Duration {
	return Jitter(Backoff(attempt, base, max), percent)
}

// Jitterer computes jitter from its own random source. Use it where the
// sequence of delays must be reproducible.
type Jitterer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitterer creates a Jitterer reading from src.
func NewJitterer(src rand.Source) *Jitterer {
	return &Jitterer{rng: rand.New(src)}
}

// Jitter is the seeded equivalent of the package-level Jitter.
func (j *Jitterer) Jitter(delay time.Duration, percent float64) time.Duration {
	return jitter(delay, percent, func() float64 {
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.rng.Float64()
	})
}

// BackoffWithJitter is the seeded equivalent of the package-level function.
func (j *Jitterer) BackoffWithJitter(attempt int, base, max time.Duration, percent float64) time.Duration {
	return j.Jitter(Backoff(attempt, base, max), percent)
}

func jitter(delay time.Duration, percent float64, float func() float64) time.Duration {
	switch {
	case percent < 0:
		percent = 0
	case percent > 1:
		percent = 1
	}
	d := float64(delay)
	if percent > 0 {
		u := float()*2 - 1
		d += d * percent * u
	}
	return roundMillis(d)
}

func roundMillis(d float64) time.Duration {
	return time.Duration(math.Round(d/float64(time.Millisecond))) * time.Millisecond
}
