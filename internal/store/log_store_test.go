package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/pkg/clock"
)

func newLogStore(t *testing.T) (*LogStore, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewLogStore(1000, 24*time.Hour, clk), clk
}

func TestLogStoreQueryEmpty(t *testing.T) {
	s, _ := newLogStore(t)
	assert.Empty(t, s.Query(LogFilter{Contains: "anything"}))
}

func TestLogStoreLevelAndComponentFilter(t *testing.T) {
	s, _ := newLogStore(t)

	s.Record(models.LogEntry{Level: models.LevelError, Component: "pos", Message: "payment declined"})
	s.Record(models.LogEntry{Level: models.LevelInfo, Component: "pos", Message: "sale completed"})
	s.Record(models.LogEntry{Level: models.LevelError, Component: "billing", Message: "invoice failed"})

	errs := s.Query(LogFilter{Levels: []models.LogLevel{models.LevelError}})
	assert.Len(t, errs, 2)

	posErrs := s.Query(LogFilter{Levels: []models.LogLevel{models.LevelError}, Component: "pos"})
	require.Len(t, posErrs, 1)
	assert.Equal(t, "payment declined", posErrs[0].Message)
}

func TestLogStoreSubstringCaseInsensitive(t *testing.T) {
	s, _ := newLogStore(t)

	s.Record(models.LogEntry{Message: "Authentication Failed for user bob"})
	s.Record(models.LogEntry{Message: "user bob logged in"})

	hits := s.Query(LogFilter{Contains: "authentication failed"})
	assert.Len(t, hits, 1)
}

func TestLogStoreErrorPresenceFilter(t *testing.T) {
	s, _ := newLogStore(t)

	s.Record(models.LogEntry{Message: "boom", Error: &models.ErrorInfo{Name: "DBError", Message: "timeout"}})
	s.Record(models.LogEntry{Message: "fine"})

	hasErr := true
	hits := s.Query(LogFilter{HasError: &hasErr})
	require.Len(t, hits, 1)
	assert.Equal(t, "boom", hits[0].Message)

	hasErr = false
	hits = s.Query(LogFilter{HasError: &hasErr})
	require.Len(t, hits, 1)
	assert.Equal(t, "fine", hits[0].Message)
}

func TestLogStoreDataEqualsFilter(t *testing.T) {
	s, _ := newLogStore(t)

	s.Record(models.LogEntry{Message: "authentication failed", Data: map[string]interface{}{"ip": "1.2.3.4"}})
	s.Record(models.LogEntry{Message: "authentication failed", Data: map[string]interface{}{"ip": "5.6.7.8"}})

	hits := s.Query(LogFilter{DataEquals: map[string]string{"ip": "1.2.3.4"}})
	assert.Len(t, hits, 1)
}

func TestLogStoreNumericFieldFilter(t *testing.T) {
	s, _ := newLogStore(t)

	s.Record(models.LogEntry{Message: "slow", Performance: &models.PerformanceInfo{DurationMs: 900}})
	s.Record(models.LogEntry{Message: "fast", Performance: &models.PerformanceInfo{DurationMs: 20}})
	s.Record(models.LogEntry{Message: "no perf data"})

	slow := s.Query(LogFilter{NumericField: "performance.duration_ms", Op: OpGreaterThan, Threshold: 500})
	require.Len(t, slow, 1)
	assert.Equal(t, "slow", slow[0].Message)

	retries := s.Query(LogFilter{NumericField: "retries", Op: OpEqual, Threshold: 3})
	assert.Empty(t, retries)

	s.Record(models.LogEntry{Message: "retried", Data: map[string]interface{}{"retries": float64(3)}})
	retries = s.Query(LogFilter{NumericField: "retries", Op: OpEqual, Threshold: 3})
	assert.Len(t, retries, 1)
}

func TestLogStoreCountCapEviction(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewLogStore(100, 24*time.Hour, clk)

	for i := 0; i < 101; i++ {
		s.Record(models.LogEntry{Message: "entry"})
	}
	assert.LessOrEqual(t, s.Len(), 100)
}
