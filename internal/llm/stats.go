package llm

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time aggregate of model call latencies.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Stats keeps call latencies for a rolling window. Samples arrive in time
// order, so expiry is a binary search plus one slice delete.
type Stats struct {
	mu        sync.Mutex
	window    time.Duration
	times     []time.Time
	durations []int64
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

func (s *Stats) Record(durationMs int64) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(now)
	s.times = append(s.times, now)
	s.durations = append(s.durations, max(durationMs, 0))
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(time.Now())
	if len(s.durations) == 0 {
		return StatsSnapshot{}
	}

	values := slices.Clone(s.durations)
	slices.Sort(values)
	var sum int64
	for _, v := range values {
		sum += v
	}

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *Stats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	keep := sort.Search(len(s.times), func(i int) bool {
		return !s.times[i].Before(cutoff)
	})
	if keep > 0 {
		s.times = slices.Delete(s.times, 0, keep)
		s.durations = slices.Delete(s.durations, 0, keep)
	}
}

// percentile linearly interpolates between the two nearest ranks of a
// sorted sample.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[hi])-float64(sorted[lo]))*frac
}
