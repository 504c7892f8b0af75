package store

import (
	"strings"
	"sync"
	"time"

	"github.com/platformbuilds/vigil-core/internal/metrics"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/pkg/clock"
)

// LogFilter selects entries from the log store. Zero fields match
// everything. NumericField addresses "performance.duration_ms",
// "performance.memory_used_bytes" or any numeric key in the entry's Data.
type LogFilter struct {
	Levels       []models.LogLevel
	Component    string
	From         time.Time
	To           time.Time
	Contains     string
	HasError     *bool
	DataEquals   map[string]string
	NumericField string
	Op           CompareOp
	Threshold    float64
}

// LogStore is a time- and count-bounded buffer of structured log entries.
type LogStore struct {
	mu        sync.Mutex
	ring      *ring[models.LogEntry]
	retention time.Duration
	clock     clock.Clock
	writes    int
}

func NewLogStore(maxEntries int, retention time.Duration, clk clock.Clock) *LogStore {
	return &LogStore{
		ring:      newRing[models.LogEntry](maxEntries),
		retention: retention,
		clock:     clk,
	}
}

func (s *LogStore) Record(e models.LogEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.clock.Now()
	}
	if e.Level == "" {
		e.Level = models.LevelInfo
	}

	s.mu.Lock()
	if evicted := s.ring.push(e); evicted > 0 {
		metrics.StoreEvictionsTotal.WithLabelValues("logs", "capacity").Add(float64(evicted))
	}
	s.writes++
	if s.writes%defaultSweepEvery == 0 {
		s.sweepLocked()
	}
	metrics.StoreSize.WithLabelValues("logs").Set(float64(s.ring.len()))
	s.mu.Unlock()

	metrics.SamplesRecordedTotal.WithLabelValues("log").Inc()
}

func (s *LogStore) sweepLocked() {
	cutoff := s.clock.Now().Add(-s.retention)
	n := 0
	for n < s.ring.len() && s.ring.at(n).Timestamp.Before(cutoff) {
		n++
	}
	if n > 0 {
		s.ring.dropOldest(n)
		metrics.StoreEvictionsTotal.WithLabelValues("logs", "age").Add(float64(n))
	}
}

// Query returns entries matching the filter, oldest first.
func (s *LogStore) Query(f LogFilter) []models.LogEntry {
	s.mu.Lock()
	items := s.ring.all()
	s.mu.Unlock()

	out := make([]models.LogEntry, 0, len(items))
	for _, e := range items {
		if !s.matches(&e, &f) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *LogStore) matches(e *models.LogEntry, f *LogFilter) bool {
	if len(f.Levels) > 0 && !levelIn(f.Levels, e.Level) {
		return false
	}
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	if f.Contains != "" && !strings.Contains(strings.ToLower(e.Message), strings.ToLower(f.Contains)) {
		return false
	}
	if f.HasError != nil && e.HasError() != *f.HasError {
		return false
	}
	for k, v := range f.DataEquals {
		dv, ok := e.Data[k]
		if !ok {
			return false
		}
		sv, ok := dv.(string)
		if !ok || sv != v {
			return false
		}
	}
	if f.NumericField != "" {
		v, ok := numericField(e, f.NumericField)
		if !ok || !f.Op.apply(v, f.Threshold) {
			return false
		}
	}
	return true
}

func numericField(e *models.LogEntry, field string) (float64, bool) {
	switch field {
	case "performance.duration_ms":
		if e.Performance == nil {
			return 0, false
		}
		return e.Performance.DurationMs, true
	case "performance.memory_used_bytes":
		if e.Performance == nil {
			return 0, false
		}
		return float64(e.Performance.MemoryUsedBytes), true
	}
	raw, ok := e.Data[field]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Snapshot copies all entries inside the trailing window.
func (s *LogStore) Snapshot(window time.Duration) []models.LogEntry {
	now := s.clock.Now()
	return s.Query(LogFilter{From: now.Add(-window), To: now})
}

func (s *LogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.len()
}

func levelIn(levels []models.LogLevel, l models.LogLevel) bool {
	for _, v := range levels {
		if v == l {
			return true
		}
	}
	return false
}
