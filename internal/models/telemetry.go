package models

import "time"

// LogLevel ranks log entries from most to least severe.
type LogLevel string

const (
	LevelError LogLevel = "error"
	LevelWarn  LogLevel = "warn"
	LevelInfo  LogLevel = "info"
	LevelDebug LogLevel = "debug"
	LevelTrace LogLevel = "trace"
)

// Metric is a single numeric sample recorded by an instrumented call site.
// Immutable once recorded.
type Metric struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit"` // ms, bytes, count, percent
	Timestamp time.Time         `json:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// LogEntry is a structured application log record. Immutable once recorded.
type LogEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       LogLevel               `json:"level"`
	Component   string                 `json:"component"`
	Message     string                 `json:"message"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Error       *ErrorInfo             `json:"error,omitempty"`
	Performance *PerformanceInfo       `json:"performance,omitempty"`
}

type ErrorInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Code    string `json:"code,omitempty"`
}

type PerformanceInfo struct {
	DurationMs      float64 `json:"duration_ms,omitempty"`
	MemoryUsedBytes int64   `json:"memory_used_bytes,omitempty"`
}

// HasError reports whether the entry carries error detail.
func (e *LogEntry) HasError() bool {
	return e.Error != nil
}

// MetricSummary aggregates samples of one metric name over a window.
type MetricSummary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}
