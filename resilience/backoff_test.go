package resilience

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{5000, 30 * time.Second},
	}
	for _, tc := range tests {
		if got := Backoff(tc.attempt, base, max); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoff_MatchesFormula(t *testing.T) {
	base := 250 * time.Millisecond
	max := 45 * time.Second
	for attempt := 0; attempt < 40; attempt++ {
		want := time.Duration(math.Min(float64(base)*math.Pow(2, float64(attempt)), float64(max)))
		if got := Backoff(attempt, base, max); got != want {
			t.Fatalf("Backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestBackoff_Monotonic(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 64; attempt++ {
		d := Backoff(attempt, 100*time.Millisecond, time.Minute)
		if d < prev {
			t.Fatalf("Backoff(%d) = %v decreased from %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestJitter_ZeroPercentIsPassthrough(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{time.Second, time.Second},
		{1500 * time.Microsecond, 2 * time.Millisecond},
		{1499 * time.Microsecond, time.Millisecond},
		{0, 0},
	}
	for _, tc := range tests {
		if got := Jitter(tc.in, 0); got != tc.want {
			t.Errorf("Jitter(%v, 0) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestJitter_Bounds(t *testing.T) {
	for _, p := range []float64{0.1, 0.25, 0.5, 1} {
		d := 1000 * time.Millisecond
		lo := roundMillis(float64(d) * (1 - p))
		hi := roundMillis(float64(d) * (1 + p))
		for i := 0; i < 1000; i++ {
			got := Jitter(d, p)
			if got < lo || got > hi {
				t.Fatalf("Jitter(%v, %v) = %v outside [%v, %v]", d, p, got, lo, hi)
			}
			if got%time.Millisecond != 0 {
				t.Fatalf("Jitter(%v, %v) = %v not whole milliseconds", d, p, got)
			}
		}
	}
}

func TestJitter_ClampsPercent(t *testing.T) {
	if got := Jitter(time.Second, -0.5); got != time.Second {
		t.Errorf("negative percent should clamp to 0, got %v", got)
	}
	for i := 0; i < 100; i++ {
		if got := Jitter(time.Second, 3); got < 0 || got > 2*time.Second {
			t.Fatalf("percent above 1 should clamp to 1, got %v", got)
		}
	}
}

func TestBackoffWithJitter_CapBeforeJitter(t *testing.T) {
	max := 10 * time.Second
	sawAboveMax := false
	for i := 0; i < 1000; i++ {
		got := BackoffWithJitter(20, time.Second, max, DefaultJitterPercent)
		if got < 7500*time.Millisecond || got > 12500*time.Millisecond {
			t.Fatalf("BackoffWithJitter = %v outside jitter window around max", got)
		}
		if got > max {
			sawAboveMax = true
		}
	}
	if !sawAboveMax {
		t.Error("expected jitter to exceed max at least once in 1000 trials")
	}
}

func TestJitterer_Deterministic(t *testing.T) {
	a := NewJitterer(rand.NewPCG(1, 2))
	b := NewJitterer(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		da := a.BackoffWithJitter(i%6, 100*time.Millisecond, 5*time.Second, 0.25)
		db := b.BackoffWithJitter(i%6, 100*time.Millisecond, 5*time.Second, 0.25)
		if da != db {
			t.Fatalf("step %d: %v != %v", i, da, db)
		}
	}
}
