// Package aigov checks prompt/response pairs for governance violations
// at generation time. Unlike the security detector, every matching rule
// fires independently: one interaction can violate several governance
// dimensions and each violation is audited separately.
package aigov

import (
	"fmt"
	"regexp"
	"strings"
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

// Dispatcher forwards detected events to the response orchestrator.
type Dispatcher interface {
	Dispatch(ev models.Event)
}

// SafeResponse replaces withheld model output on blocking violations.
const SafeResponse = "I can't help with that request. Please rephrase it or contact support if you believe this is an error."

var (
	promptInjectionPattern = regexp.MustCompile(`(?i)(ignore\s+(all\s+)?(previous|prior|above)\s+instructions|disregard\s+(your|the)\s+(instructions|rules)|reveal\s+your\s+system\s+prompt|you\s+are\s+now\s+(dan|unrestricted)|pretend\s+(to\s+be|you\s+are)|jailbreak)`)
	biasPatterns           = regexp.MustCompile(`(?i)(all\s+(women|men|immigrants|foreigners|old\s+people|young\s+people)\s+(are|can't|cannot|always|never)|people\s+like\s+(them|that)\s+(are|always|never)|typical\s+(woman|man|foreigner))`)
	compliancePatterns     = regexp.MustCompile(`(?i)(diagnose\s+(me|my)|what\s+medication\s+should|medical\s+advice|legal\s+advice|should\s+i\s+sue|draft\s+.*\s+contract|which\s+stocks?\s+(should|to)\s+buy|guaranteed\s+(return|profit)|investment\s+advice)`)
)

var toxicKeywords = []string{
	"kill yourself", "worthless", "i hate you", "go die", "stupid idiot",
}

const historyLimit = 1000

// Detector runs governance checks on AI interactions.
type Detector struct {
	cfg        config.GovernanceConfig
	logStore   *store.LogStore
	dispatcher Dispatcher
	clock      clock.Clock
	logger     logger.Logger

	mu      sync.Mutex
	history []*models.AIGovernanceEvent
}

func NewDetector(cfg config.GovernanceConfig, ls *store.LogStore, dispatcher Dispatcher, clk clock.Clock, log logger.Logger) *Detector {
	return &Detector{
		cfg:        cfg,
		logStore:   ls,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     log.With("component", "aigov-detector"),
	}
}

// CheckInteraction evaluates every governance dimension against one
// interaction. All matching rules fire. When any blocking violation is
// present the result carries the safe alternative response the caller
// must serve instead of the model output.
func (d *Detector) CheckInteraction(in *models.AIInteraction) *models.GovernanceResult {
	result := &models.GovernanceResult{}
	if in == nil {
		return result
	}

	if promptInjectionPattern.MatchString(in.Prompt) {
		ev := d.newEvent(in, models.EventPromptInjection, models.SeverityHigh,
			"Prompt injection attempt", "instruction-override phrasing in prompt")
		result.Events = append(result.Events, ev)
		result.Blocked = true
	}

	// data leak checks the response only; PII inside the prompt is the
	// user's own input, not a model leak
	if kinds := containsPII(in.Response); len(kinds) > 0 {
		ev := d.newEvent(in, models.EventDataLeak, models.SeverityCritical,
			"Sensitive data in model output", fmt.Sprintf("PII kinds detected: %s", strings.Join(kinds, ", ")))
		ev.Details["pii_kinds"] = kinds
		result.Events = append(result.Events, ev)
		result.Blocked = true
	}

	if d.isToxic(in) {
		ev := d.newEvent(in, models.EventToxicContent, models.SeverityHigh,
			"Toxic model output", fmt.Sprintf("toxicity score %.2f (threshold %.2f)", in.ToxicityScore, d.cfg.ToxicityThreshold))
		ev.Details["toxicity_score"] = in.ToxicityScore
		result.Events = append(result.Events, ev)
		result.Blocked = true
	}

	if biasPatterns.MatchString(in.Response) {
		result.Events = append(result.Events, d.newEvent(in, models.EventBiasDetected, models.SeverityMedium,
			"Biased model output", "stereotype phrasing in response"))
	}

	if compliancePatterns.MatchString(in.Prompt) {
		result.Events = append(result.Events, d.newEvent(in, models.EventComplianceViolation, models.SeverityMedium,
			"Regulated-advice request", "medical, legal or financial advice pattern in prompt"))
	}

	for _, ev := range result.Events {
		d.emit(ev)
	}
	if result.Blocked {
		result.SafeResponse = SafeResponse
	}
	return result
}

func (d *Detector) isToxic(in *models.AIInteraction) bool {
	if in.ToxicityScore > d.cfg.ToxicityThreshold {
		return true
	}
	lower := strings.ToLower(in.Response)
	for _, kw := range toxicKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// newEvent builds a governance event with prompt and response already
// redacted. Raw text never leaves the check call.
func (d *Detector) newEvent(in *models.AIInteraction, t models.GovernanceEventType, sev models.Severity, title, desc string) *models.AIGovernanceEvent {
	return &models.AIGovernanceEvent{
		ID:          uuid.NewString(),
		Type:        t,
		Severity:    sev,
		Title:       title,
		Description: desc,
		ModelID:     in.ModelID,
		Prompt:      Redact(in.Prompt),
		Response:    Redact(in.Response),
		Timestamp:   d.clock.Now(),
		Source:      in.Source,
		Details:     make(map[string]interface{}),
	}
}

func (d *Detector) emit(ev *models.AIGovernanceEvent) {
	metrics.GovernanceEventsTotal.WithLabelValues(string(ev.Type), ev.ModelID).Inc()

	d.mu.Lock()
	d.history = append(d.history, ev)
	if len(d.history) > historyLimit {
		d.history = append([]*models.AIGovernanceEvent(nil), d.history[len(d.history)/2:]...)
	}
	d.mu.Unlock()

	d.logStore.Record(models.LogEntry{
		Level:     models.LevelWarn,
		Component: "aigov-detector",
		Message:   fmt.Sprintf("governance event: %s", ev.Type),
		Data: map[string]interface{}{
			"event_id": ev.ID,
			"type":     string(ev.Type),
			"model_id": ev.ModelID,
			"prompt":   ev.Prompt, // already redacted
		},
	})

	d.logger.Warn("Governance event detected",
		"event_id", ev.ID,
		"type", ev.Type,
		"model_id", ev.ModelID,
		"severity", ev.Severity,
	)

	if d.dispatcher != nil {
		d.dispatcher.Dispatch(ev)
	}
}

// Summary aggregates governance events over the trailing window.
func (d *Detector) Summary(window time.Duration) *models.GovernanceSummary {
	cutoff := d.clock.Now().Add(-window)

	d.mu.Lock()
	events := make([]*models.AIGovernanceEvent, len(d.history))
	copy(events, d.history)
	d.mu.Unlock()

	s := &models.GovernanceSummary{
		Window:     window,
		ByType:     make(map[models.GovernanceEventType]int),
		BySeverity: make(map[models.Severity]int),
		ByModel:    make(map[string]int),
	}
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		s.Total++
		s.ByType[ev.Type]++
		s.BySeverity[ev.Severity]++
		s.ByModel[ev.ModelID]++
		switch ev.Type {
		case models.EventPromptInjection, models.EventDataLeak, models.EventToxicContent:
			s.Blocked++
		}
	}
	return s
}
