package engine

import (
	"strings"
	"time"

	"github.com/platformbuilds/vigil-core/internal/models"
)

// ThresholdRule is a rule whose condition closes over a tunable numeric
// threshold. The rules YAML file can retune Threshold at runtime; Build
// is invoked again with the new value.
type ThresholdRule struct {
	ID        string
	Name      string
	Category  models.Category
	Severity  models.Severity
	Cooldown  time.Duration
	Enabled   bool
	Threshold float64
	Build     func(threshold float64) func(*models.AlertContext) bool
}

// errorRateSampleSize is how many trailing request entries the error-rate
// rule inspects.
const errorRateSampleSize = 100

// ErrorRateRule fires when the error fraction of the last 100 request
// log entries for the component meets the threshold. Conditions tolerate
// empty data: no requests means no alert.
func ErrorRateRule(component string, threshold float64) ThresholdRule {
	return ThresholdRule{
		ID:        "error_rate_high",
		Name:      "High request error rate",
		Category:  models.CategoryAvailability,
		Severity:  models.SeverityHigh,
		Cooldown:  10 * time.Minute,
		Enabled:   true,
		Threshold: threshold,
		Build: func(th float64) func(*models.AlertContext) bool {
			return func(ctx *models.AlertContext) bool {
				var requests []models.LogEntry
				for _, e := range ctx.Logs {
					if e.Component == component {
						requests = append(requests, e)
					}
				}
				if len(requests) == 0 {
					return false
				}
				if len(requests) > errorRateSampleSize {
					requests = requests[len(requests)-errorRateSampleSize:]
				}
				errored := 0
				for _, e := range requests {
					if e.Level == models.LevelError || e.HasError() {
						errored++
					}
				}
				return float64(errored)/float64(len(requests)) >= th
			}
		},
	}
}

// LatencyRule fires when the average of the named duration metric over
// the evaluation window exceeds the threshold in milliseconds.
func LatencyRule(metricName string, thresholdMs float64) ThresholdRule {
	return ThresholdRule{
		ID:        "latency_high",
		Name:      "High request latency",
		Category:  models.CategoryPerformance,
		Severity:  models.SeverityMedium,
		Cooldown:  10 * time.Minute,
		Enabled:   true,
		Threshold: thresholdMs,
		Build: func(th float64) func(*models.AlertContext) bool {
			return func(ctx *models.AlertContext) bool {
				samples := ctx.MetricsNamed(metricName)
				if len(samples) == 0 {
					return false
				}
				var sum float64
				for _, m := range samples {
					sum += m.Value
				}
				return sum/float64(len(samples)) > th
			}
		},
	}
}

// MemoryUsageRule fires when the most recent sample of the named percent
// metric exceeds the threshold.
func MemoryUsageRule(metricName string, thresholdPercent float64) ThresholdRule {
	return ThresholdRule{
		ID:        "memory_usage_high",
		Name:      "High memory usage",
		Category:  models.CategoryPerformance,
		Severity:  models.SeverityCritical,
		Cooldown:  15 * time.Minute,
		Enabled:   true,
		Threshold: thresholdPercent,
		Build: func(th float64) func(*models.AlertContext) bool {
			return func(ctx *models.AlertContext) bool {
				samples := ctx.MetricsNamed(metricName)
				if len(samples) == 0 {
					return false
				}
				return samples[len(samples)-1].Value > th
			}
		},
	}
}

// AuthFailureSpikeRule fires when authentication failures in the window
// meet the threshold count.
func AuthFailureSpikeRule(threshold float64) ThresholdRule {
	return ThresholdRule{
		ID:        "auth_failure_spike",
		Name:      "Authentication failure spike",
		Category:  models.CategorySecurity,
		Severity:  models.SeverityHigh,
		Cooldown:  5 * time.Minute,
		Enabled:   true,
		Threshold: threshold,
		Build: func(th float64) func(*models.AlertContext) bool {
			return func(ctx *models.AlertContext) bool {
				count := 0
				for _, e := range ctx.Logs {
					if strings.Contains(strings.ToLower(e.Message), "authentication failed") {
						count++
					}
				}
				return float64(count) >= th
			}
		},
	}
}

// SlowQueryRule fires when the average of the named query-duration metric
// exceeds the threshold in milliseconds.
func SlowQueryRule(metricName string, thresholdMs float64) ThresholdRule {
	return ThresholdRule{
		ID:        "slow_queries",
		Name:      "Slow database queries",
		Category:  models.CategoryDatabase,
		Severity:  models.SeverityMedium,
		Cooldown:  10 * time.Minute,
		Enabled:   true,
		Threshold: thresholdMs,
		Build: func(th float64) func(*models.AlertContext) bool {
			return func(ctx *models.AlertContext) bool {
				samples := ctx.MetricsNamed(metricName)
				if len(samples) == 0 {
					return false
				}
				var sum float64
				for _, m := range samples {
					sum += m.Value
				}
				return sum/float64(len(samples)) > th
			}
		},
	}
}

// DefaultRules is the rule set a stock deployment registers at startup.
// Thresholds are serviceable defaults for a typical web workload and
// remain tunable via the rules YAML file.
func DefaultRules() []ThresholdRule {
	return []ThresholdRule{
		ErrorRateRule("http", 0.05),
		LatencyRule("request_duration_ms", 500),
		MemoryUsageRule("memory_used_percent", 90),
		AuthFailureSpikeRule(20),
		SlowQueryRule("db_query_duration_ms", 250),
	}
}
