// Package store holds the bounded in-memory telemetry buffers the rule
// engine evaluates against. Writes come from many concurrent call sites;
// reads take snapshot copies so evaluation never races with ingest.
package store

import (
	"sync"
	"time"

	"github.com/platformbuilds/vigil-core/internal/metrics"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/pkg/clock"
)

// defaultSweepEvery bounds how often the age-based sweep runs so a write
// never pays a full rescan.
const defaultSweepEvery = 256

// CompareOp is the numeric comparison applied by query filters.
type CompareOp string

const (
	OpGreaterThan CompareOp = "gt"
	OpLessThan    CompareOp = "lt"
	OpEqual       CompareOp = "eq"
)

func (op CompareOp) apply(v, threshold float64) bool {
	switch op {
	case OpGreaterThan:
		return v > threshold
	case OpLessThan:
		return v < threshold
	case OpEqual:
		return v == threshold
	}
	return false
}

// MetricFilter selects samples from the metrics store. Zero fields match
// everything.
type MetricFilter struct {
	Name      string
	From      time.Time
	To        time.Time
	Tags      map[string]string
	Op        CompareOp
	Threshold float64
}

// MetricsStore is a time-bounded buffer of numeric samples.
type MetricsStore struct {
	mu        sync.Mutex
	ring      *ring[models.Metric]
	retention time.Duration
	clock     clock.Clock
	writes    int
}

func NewMetricsStore(maxEntries int, retention time.Duration, clk clock.Clock) *MetricsStore {
	return &MetricsStore{
		ring:      newRing[models.Metric](maxEntries),
		retention: retention,
		clock:     clk,
	}
}

// Record appends one sample. The timestamp is normalized to the store
// clock when the caller left it unset.
func (s *MetricsStore) Record(m models.Metric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = s.clock.Now()
	}

	s.mu.Lock()
	if evicted := s.ring.push(m); evicted > 0 {
		metrics.StoreEvictionsTotal.WithLabelValues("metrics", "capacity").Add(float64(evicted))
	}
	s.writes++
	if s.writes%defaultSweepEvery == 0 {
		s.sweepLocked()
	}
	metrics.StoreSize.WithLabelValues("metrics").Set(float64(s.ring.len()))
	s.mu.Unlock()

	metrics.SamplesRecordedTotal.WithLabelValues("metric").Inc()
}

// sweepLocked drops samples older than the retention window. Entries are
// appended in arrival order, which tracks timestamp order closely enough
// for retention purposes.
func (s *MetricsStore) sweepLocked() {
	cutoff := s.clock.Now().Add(-s.retention)
	n := 0
	for n < s.ring.len() && s.ring.at(n).Timestamp.Before(cutoff) {
		n++
	}
	if n > 0 {
		s.ring.dropOldest(n)
		metrics.StoreEvictionsTotal.WithLabelValues("metrics", "age").Add(float64(n))
	}
}

// Query returns samples matching the filter, oldest first. An empty
// store yields an empty result, never an error.
func (s *MetricsStore) Query(f MetricFilter) []models.Metric {
	s.mu.Lock()
	items := s.ring.all()
	s.mu.Unlock()

	out := make([]models.Metric, 0, len(items))
	for _, m := range items {
		if f.Name != "" && m.Name != f.Name {
			continue
		}
		if !f.From.IsZero() && m.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && m.Timestamp.After(f.To) {
			continue
		}
		if !tagsMatch(m.Tags, f.Tags) {
			continue
		}
		if f.Op != "" && !f.Op.apply(m.Value, f.Threshold) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Snapshot copies all samples inside the trailing window for rule
// evaluation.
func (s *MetricsStore) Snapshot(window time.Duration) []models.Metric {
	now := s.clock.Now()
	return s.Query(MetricFilter{From: now.Add(-window), To: now})
}

// Summarize aggregates per-name stats over the trailing window.
func (s *MetricsStore) Summarize(window time.Duration) map[string]models.MetricSummary {
	out := make(map[string]models.MetricSummary)
	for _, m := range s.Snapshot(window) {
		sum, ok := out[m.Name]
		if !ok {
			sum = models.MetricSummary{Min: m.Value, Max: m.Value}
		}
		sum.Count++
		sum.Sum += m.Value
		if m.Value < sum.Min {
			sum.Min = m.Value
		}
		if m.Value > sum.Max {
			sum.Max = m.Value
		}
		out[m.Name] = sum
	}
	for name, sum := range out {
		sum.Avg = sum.Sum / float64(sum.Count)
		out[name] = sum
	}
	return out
}

func (s *MetricsStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.len()
}

func tagsMatch(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
