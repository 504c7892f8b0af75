// Package monitoring assembles the stores, rule engine, detectors and
// response orchestrator into one MonitoringContext constructed at
// process start and handed to every call site. There are no package
// singletons: lifecycle is created at startup, torn down at shutdown.
package monitoring

import (
	"context"
	"time"

	"github.com/platformbuilds/vigil-core/internal/aigov"
	"github.com/platformbuilds/vigil-core/internal/api/websocket"
	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/engine"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/response"
	"github.com/platformbuilds/vigil-core/internal/security"
	"github.com/platformbuilds/vigil-core/internal/store"
	"github.com/platformbuilds/vigil-core/pkg/cache"
	"github.com/platformbuilds/vigil-core/pkg/clock"
	"github.com/platformbuilds/vigil-core/pkg/logger"
	"github.com/platformbuilds/vigil-core/pkg/notifier"
)

// Hooks are embedder-supplied remediation callbacks for the built-in
// actions. Nil hooks leave the corresponding action as an audited no-op.
type Hooks struct {
	ScaleUp    response.Hook
	ClearCache response.Hook
	Quarantine response.Hook
}

// fanout forwards each emitted event to every downstream consumer
// (orchestrator first so remediation is never starved by stream I/O).
type fanout []interface{ Dispatch(models.Event) }

func (f fanout) Dispatch(ev models.Event) {
	for _, d := range f {
		d.Dispatch(ev)
	}
}

// MonitoringContext is the embedding application's single handle on the
// monitoring engine.
type MonitoringContext struct {
	cfg          *config.Config
	logger       logger.Logger
	clock        clock.Clock
	metricsStore *store.MetricsStore
	logStore     *store.LogStore
	engine       *engine.Engine
	security     *security.Detector
	governance   *aigov.Detector
	orchestrator *response.Orchestrator
	hub          *websocket.Hub
	ruleWatcher  *config.RuleFileWatcher

	cancel context.CancelFunc
}

// New wires the full engine. Default rules and actions are registered;
// embedders add their own via RegisterRule / RegisterAction before Start.
func New(
	cfg *config.Config,
	log logger.Logger,
	kv cache.Store,
	sink notifier.Notifier,
	clk clock.Clock,
	hooks Hooks,
) (*MonitoringContext, error) {
	retention := cfg.Stores.Retention()
	metricsStore := store.NewMetricsStore(cfg.Stores.MetricsMaxEntries, retention, clk)
	logStore := store.NewLogStore(cfg.Stores.LogsMaxEntries, retention, clk)

	orchestrator := response.NewOrchestrator(cfg.Response, clk, log)
	hub := websocket.NewHub(log)
	dispatch := fanout{orchestrator, hub}

	eng := engine.New(cfg.Engine, metricsStore, logStore, dispatch, clk, log)
	sec := security.NewDetector(cfg.Security, logStore, kv, dispatch, clk, log)
	gov := aigov.NewDetector(cfg.Governance, logStore, dispatch, clk, log)

	mc := &MonitoringContext{
		cfg:          cfg,
		logger:       log,
		clock:        clk,
		metricsStore: metricsStore,
		logStore:     logStore,
		engine:       eng,
		security:     sec,
		governance:   gov,
		orchestrator: orchestrator,
		hub:          hub,
	}

	for _, tr := range engine.DefaultRules() {
		if err := eng.RegisterThreshold(tr); err != nil {
			return nil, err
		}
	}

	actions := []*response.Action{
		response.NotifyTeamAction(sink),
		response.BlockIPAction(sec.Blocklist()),
		response.ScaleUpAction(hooks.ScaleUp),
		response.ClearCacheAction(hooks.ClearCache),
		response.QuarantineUploadAction(hooks.Quarantine),
		response.BlockResponseAction(),
	}
	for _, a := range actions {
		if err := orchestrator.Register(a); err != nil {
			return nil, err
		}
	}

	if cfg.Engine.RulesPath != "" {
		mc.ruleWatcher = config.NewRuleFileWatcher(cfg.Engine.RulesPath, log)
		mc.ruleWatcher.OnReload(eng.ApplyOverrides)
	}

	return mc, nil
}

// Start launches the evaluation loop, the stream hub and the rule-file
// watcher.
func (mc *MonitoringContext) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	mc.cancel = cancel

	go mc.hub.Run(ctx)
	go mc.engine.Run(ctx)
	if mc.ruleWatcher != nil {
		go func() {
			if err := mc.ruleWatcher.Start(ctx); err != nil {
				mc.logger.Error("Rule file watcher failed", "error", err)
			}
		}()
	}
}

// Shutdown stops the loops and drains in-flight action executions up to
// their timeout.
func (mc *MonitoringContext) Shutdown() {
	if mc.cancel != nil {
		mc.cancel()
	}
	mc.orchestrator.Shutdown()
	mc.logger.Info("Monitoring context shut down")
}

// RecordMetric ingests one numeric sample from an instrumented call site.
func (mc *MonitoringContext) RecordMetric(name string, value float64, unit string, tags map[string]string) {
	mc.metricsStore.Record(models.Metric{Name: name, Value: value, Unit: unit, Tags: tags})
}

// RecordLog ingests one structured log entry.
func (mc *MonitoringContext) RecordLog(entry models.LogEntry) {
	mc.logStore.Record(entry)
}

// RegisterRule adds a custom fixed-condition rule.
func (mc *MonitoringContext) RegisterRule(rule models.AlertRule) error {
	return mc.engine.Register(rule)
}

// RegisterThresholdRule adds a custom tunable rule.
func (mc *MonitoringContext) RegisterThresholdRule(tr engine.ThresholdRule) error {
	return mc.engine.RegisterThreshold(tr)
}

// RegisterAction adds a custom remediation action.
func (mc *MonitoringContext) RegisterAction(a *response.Action) error {
	return mc.orchestrator.Register(a)
}

// CheckSecurityContext runs the security detector inline on the request
// path.
func (mc *MonitoringContext) CheckSecurityContext(ctx context.Context, sc *models.SecurityContext) (*models.SecurityEvent, error) {
	return mc.security.Check(ctx, sc)
}

// CheckAIInteraction runs the governance detector inline on the
// generation path.
func (mc *MonitoringContext) CheckAIInteraction(in *models.AIInteraction) *models.GovernanceResult {
	return mc.governance.CheckInteraction(in)
}

func (mc *MonitoringContext) ResolveAlert(id, resolvedBy string) error {
	return mc.engine.ResolveAlert(id, resolvedBy)
}

func (mc *MonitoringContext) ActiveAlerts() []*models.Alert {
	return mc.engine.ActiveAlerts()
}

func (mc *MonitoringContext) AlertSummary(window time.Duration) *models.AlertSummary {
	return mc.engine.Summary(window)
}

func (mc *MonitoringContext) SecuritySummary(ctx context.Context, window time.Duration) *models.SecuritySummary {
	return mc.security.Summary(ctx, window)
}

func (mc *MonitoringContext) GovernanceSummary(window time.Duration) *models.GovernanceSummary {
	return mc.governance.Summary(window)
}

func (mc *MonitoringContext) MetricsSummary(window time.Duration) map[string]models.MetricSummary {
	return mc.metricsStore.Summarize(window)
}

func (mc *MonitoringContext) Executions(limit int) []models.ActionExecution {
	return mc.orchestrator.Executions(limit)
}

// Hub exposes the stream hub for the API server's WebSocket route.
func (mc *MonitoringContext) Hub() *websocket.Hub { return mc.hub }

// Engine exposes the rule engine for introspection endpoints.
func (mc *MonitoringContext) Engine() *engine.Engine { return mc.engine }
