package llm

import (
	"testing"
	"time"
)

func TestStats_EmptySnapshot(t *testing.T) {
	s := NewStats(time.Hour)
	snap := s.Snapshot()
	if snap.Count != 0 {
		t.Errorf("expected count 0, got %d", snap.Count)
	}
	if snap.AvgMs != 0 || snap.P95Ms != 0 {
		t.Errorf("expected zero aggregates, got %+v", snap)
	}
}

func TestStats_SingleSample(t *testing.T) {
	s := NewStats(time.Hour)
	s.Record(100)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count 1, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 100 {
		t.Errorf("expected min/max 100, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 100 || snap.P50Ms != 100 || snap.P99Ms != 100 {
		t.Errorf("expected all aggregates 100, got %+v", snap)
	}
}

func TestStats_Aggregates(t *testing.T) {
	s := NewStats(time.Hour)
	for _, v := range []int64{10, 20, 30, 40, 50} {
		s.Record(v)
	}

	snap := s.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count 5, got %d", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 50 {
		t.Errorf("expected min 10 max 50, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 30 {
		t.Errorf("expected avg 30, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 30 {
		t.Errorf("expected p50 30, got %f", snap.P50Ms)
	}
}

func TestStats_NegativeClampedToZero(t *testing.T) {
	s := NewStats(time.Hour)
	s.Record(-5)
	snap := s.Snapshot()
	if snap.MinMs != 0 {
		t.Errorf("expected negative sample clamped to 0, got %d", snap.MinMs)
	}
}

func TestStats_WindowPruning(t *testing.T) {
	s := NewStats(50 * time.Millisecond)
	s.Record(100)
	time.Sleep(100 * time.Millisecond)
	s.Record(200)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected 1 sample after pruning, got %d", snap.Count)
	}
	if snap.MinMs != 200 {
		t.Errorf("expected only the fresh sample, got min %d", snap.MinMs)
	}
}

func TestPercentile_Interpolation(t *testing.T) {
	values := []int64{10, 20, 30, 40}

	cases := []struct {
		pct  float64
		want float64
	}{
		{0, 10},
		{100, 40},
		{50, 25}, // midpoint between 20 and 30
	}
	for _, c := range cases {
		if got := percentile(values, c.pct); got != c.want {
			t.Errorf("p%.0f: expected %f, got %f", c.pct, c.want, got)
		}
	}

	if got := percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
}
