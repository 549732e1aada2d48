package edition

import (
	"slices"
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	duration  time.Duration
}

// StatsSnapshot is a point-in-time aggregate of render pass latencies.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// RenderStats tracks recent pass latencies per operation within a rolling
// window.
type RenderStats struct {
	mu      sync.Mutex
	samples map[string][]sample
	maxAge  time.Duration
}

func NewRenderStats(maxAge time.Duration) *RenderStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &RenderStats{
		samples: make(map[string][]sample),
		maxAge:  maxAge,
	}
}

func (s *RenderStats) Record(op string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples[op] = append(prune(s.samples[op], now.Add(-s.maxAge)), sample{
		timestamp: now,
		duration:  d,
	})
}

// Snapshot aggregates every operation with samples in the window.
func (s *RenderStats) Snapshot() map[string]StatsSnapshot {
	cutoff := time.Now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.samples))
	for op, samples := range s.samples {
		samples = prune(samples, cutoff)
		if len(samples) == 0 {
			delete(s.samples, op)
			continue
		}
		s.samples[op] = samples
		out[op] = aggregate(samples)
	}
	return out
}

// Operations lists the operations with samples, sorted.
func (s *RenderStats) Operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, 0, len(s.samples))
	for op := range s.samples {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

func aggregate(samples []sample) StatsSnapshot {
	values := make([]time.Duration, 0, len(samples))
	var sum time.Duration
	for _, sm := range samples {
		values = append(values, sm.duration)
		sum += sm.duration
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count: len(values),
		MinMs: ms(values[0]),
		MaxMs: ms(values[len(values)-1]),
		AvgMs: ms(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func prune(samples []sample, cutoff time.Time) []sample {
	writeIdx := 0
	for _, sm := range samples {
		if !sm.timestamp.Before(cutoff) {
			samples[writeIdx] = sm
			writeIdx++
		}
	}
	return samples[:writeIdx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func percentile(sortedValues []time.Duration, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return ms(sortedValues[0])
	}
	if pct >= 100 {
		return ms(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return ms(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := ms(sortedValues[lower])
	hi := ms(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
