// Package engine evaluates registered alert rules against store
// snapshots on a fixed cadence and owns the alert lifecycle: a rule is
// Disabled or Idle, fires into cooldown, and returns to Idle once its
// cooldown elapses. Alerts stay active until explicitly resolved.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/metrics"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/store"
	"github.com/platformbuilds/vigil-core/pkg/clock"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

var (
	ErrDuplicateRule = errors.New("rule id already registered")
	ErrNilCondition  = errors.New("rule condition must not be nil")
	ErrRuleNotFound  = errors.New("rule not found")
	ErrAlertNotFound = errors.New("alert not found")
)

// Sink receives every alert the engine emits. The response orchestrator
// implements it; the engine never calls back into detectors or stores.
type Sink interface {
	Dispatch(ev models.Event)
}

type ruleState struct {
	rule      models.AlertRule
	threshold float64
	build     func(threshold float64) func(*models.AlertContext) bool // nil when not tunable
	lastFire  time.Time
	hasFired  bool
}

func (rs *ruleState) inCooldown(now time.Time) bool {
	return rs.hasFired && now.Sub(rs.lastFire) < rs.rule.Cooldown
}

// Engine is the periodic rule evaluator.
type Engine struct {
	mu      sync.Mutex
	rules   []*ruleState
	byID    map[string]*ruleState
	active  map[string]*models.Alert
	history []*models.Alert

	metricsStore *store.MetricsStore
	logStore     *store.LogStore
	sink         Sink
	clock        clock.Clock
	logger       logger.Logger

	tick         time.Duration
	window       time.Duration
	historyLimit int
}

func New(cfg config.EngineConfig, ms *store.MetricsStore, ls *store.LogStore, sink Sink, clk clock.Clock, log logger.Logger) *Engine {
	return &Engine{
		byID:         make(map[string]*ruleState),
		active:       make(map[string]*models.Alert),
		metricsStore: ms,
		logStore:     ls,
		sink:         sink,
		clock:        clk,
		logger:       log.With("component", "alert-engine"),
		tick:         cfg.Tick(),
		window:       cfg.Window(),
		historyLimit: cfg.HistoryLimit,
	}
}

// Register adds a rule with a fixed condition. Rules are evaluated in
// registration order.
func (e *Engine) Register(rule models.AlertRule) error {
	if rule.Condition == nil {
		return ErrNilCondition
	}
	return e.register(&ruleState{rule: rule})
}

// RegisterThreshold adds a rule whose condition is rebuilt from a tunable
// threshold, so rule-file overrides can retune it at runtime.
func (e *Engine) RegisterThreshold(tr ThresholdRule) error {
	if tr.Build == nil {
		return ErrNilCondition
	}
	rule := models.AlertRule{
		ID:        tr.ID,
		Name:      tr.Name,
		Category:  tr.Category,
		Severity:  tr.Severity,
		Cooldown:  tr.Cooldown,
		Enabled:   tr.Enabled,
		Condition: tr.Build(tr.Threshold),
	}
	return e.register(&ruleState{rule: rule, threshold: tr.Threshold, build: tr.Build})
}

func (e *Engine) register(rs *ruleState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.byID[rs.rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rs.rule.ID)
	}
	e.rules = append(e.rules, rs)
	e.byID[rs.rule.ID] = rs
	return nil
}

// SetEnabled flips a rule at runtime. Disabling does not clear cooldown
// state; a rule re-enabled mid-cooldown stays in cooldown.
func (e *Engine) SetEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	rs.rule.Enabled = enabled
	return nil
}

// ApplyOverrides applies the rule-file override set. Unknown rule ids are
// logged and skipped; a threshold override on a non-tunable rule is
// ignored.
func (e *Engine) ApplyOverrides(overrides []config.RuleOverride) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, o := range overrides {
		rs, ok := e.byID[o.ID]
		if !ok {
			e.logger.Warn("Rule override for unknown rule", "rule", o.ID)
			continue
		}
		if o.Enabled != nil {
			rs.rule.Enabled = *o.Enabled
		}
		if o.CooldownSeconds != nil {
			rs.rule.Cooldown = time.Duration(*o.CooldownSeconds) * time.Second
		}
		if o.Threshold != nil && rs.build != nil {
			rs.threshold = *o.Threshold
			rs.rule.Condition = rs.build(*o.Threshold)
		}
	}
}

// Run drives the evaluation loop until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	e.logger.Info("Rule engine started", "tick", e.tick.String(), "window", e.window.String())
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Rule engine stopped")
			return
		case <-ticker.C:
			e.EvaluateOnce()
		}
	}
}

// EvaluateOnce runs one evaluation tick over a consistent snapshot of
// both stores. A panicking condition is contained, logged and skipped;
// other rules still evaluate.
func (e *Engine) EvaluateOnce() {
	now := e.clock.Now()
	ctx := &models.AlertContext{
		Metrics:    e.metricsStore.Snapshot(e.window),
		Logs:       e.logStore.Snapshot(e.window),
		TimeWindow: e.window,
		Now:        now,
	}

	e.mu.Lock()
	states := make([]*ruleState, len(e.rules))
	copy(states, e.rules)
	e.mu.Unlock()

	for _, rs := range states {
		e.mu.Lock()
		enabled := rs.rule.Enabled
		cooling := rs.inCooldown(now)
		cond := rs.rule.Condition
		e.mu.Unlock()

		if !enabled || cooling {
			metrics.RuleEvaluationsTotal.WithLabelValues(rs.rule.ID, "skipped").Inc()
			continue
		}

		fired, err := e.evaluate(cond, ctx)
		if err != nil {
			metrics.RuleEvaluationsTotal.WithLabelValues(rs.rule.ID, "error").Inc()
			e.logger.Error("Rule condition panicked", "rule", rs.rule.ID, "error", err)
			e.logStore.Record(models.LogEntry{
				Level:     models.LevelError,
				Component: "alert-engine",
				Message:   fmt.Sprintf("rule evaluation failed: %s", rs.rule.ID),
				Error:     &models.ErrorInfo{Name: "RuleEvaluationError", Message: err.Error()},
			})
			continue
		}
		if !fired {
			metrics.RuleEvaluationsTotal.WithLabelValues(rs.rule.ID, "clear").Inc()
			continue
		}

		metrics.RuleEvaluationsTotal.WithLabelValues(rs.rule.ID, "fired").Inc()
		e.fire(rs, now)
	}
}

// evaluate runs a condition with panic containment.
func (e *Engine) evaluate(cond func(*models.AlertContext) bool, ctx *models.AlertContext) (fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cond(ctx), nil
}

func (e *Engine) fire(rs *ruleState, now time.Time) {
	alert := &models.Alert{
		ID:          uuid.NewString(),
		RuleID:      rs.rule.ID,
		Severity:    rs.rule.Severity,
		Category:    rs.rule.Category,
		Title:       rs.rule.Name,
		Description: fmt.Sprintf("rule %s triggered", rs.rule.ID),
		Timestamp:   now,
	}

	e.mu.Lock()
	rs.lastFire = now
	rs.hasFired = true
	e.active[alert.ID] = alert
	e.history = append(e.history, alert)
	if e.historyLimit > 0 && len(e.history) > e.historyLimit {
		// same halving policy as the stores, avoids trimming every fire
		e.history = append([]*models.Alert(nil), e.history[len(e.history)/2:]...)
	}
	activeCount := len(e.active)
	e.mu.Unlock()

	metrics.AlertsFiredTotal.WithLabelValues(rs.rule.ID, string(alert.Severity)).Inc()
	metrics.ActiveAlerts.Set(float64(activeCount))

	e.logger.Warn("Alert fired",
		"alert_id", alert.ID,
		"rule", rs.rule.ID,
		"severity", alert.Severity,
		"category", alert.Category,
	)

	if e.sink != nil {
		e.sink.Dispatch(alert)
	}
}

// ResolveAlert transitions an alert to resolved. Resolving an already
// resolved alert is a no-op; an unknown id is an error.
func (e *Engine) ResolveAlert(id, resolvedBy string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.active[id]
	if !ok {
		for _, a := range e.history {
			if a.ID == id {
				return nil // already resolved
			}
		}
		return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}

	now := e.clock.Now()
	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.ResolvedBy = resolvedBy
	delete(e.active, id)
	metrics.ActiveAlerts.Set(float64(len(e.active)))

	e.logger.Info("Alert resolved", "alert_id", id, "resolved_by", resolvedBy)
	return nil
}

// ActiveAlerts returns the unresolved alerts, newest first.
func (e *Engine) ActiveAlerts() []*models.Alert {
	e.mu.Lock()
	out := make([]*models.Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, a)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Summary aggregates alert history over the trailing window.
func (e *Engine) Summary(window time.Duration) *models.AlertSummary {
	cutoff := e.clock.Now().Add(-window)

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &models.AlertSummary{
		Window:     window,
		BySeverity: make(map[models.Severity]int),
		ByCategory: make(map[models.Category]int),
	}
	for _, a := range e.history {
		if a.Timestamp.Before(cutoff) {
			continue
		}
		s.Total++
		if a.Resolved {
			s.Resolved++
		} else {
			s.Active++
		}
		s.BySeverity[a.Severity]++
		s.ByCategory[a.Category]++
	}
	return s
}

// Rules lists the registered rules in registration order with their
// current enabled/cooldown state.
func (e *Engine) Rules() []models.AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.AlertRule, 0, len(e.rules))
	for _, rs := range e.rules {
		out = append(out, rs.rule)
	}
	return out
}
