// Package security holds the stateless request-path detector. Checks
// run synchronously inline with the request that invoked them, in a
// fixed order with first-match-wins so one malicious request yields at
// most one event and one round of remediation.
package security

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/metrics"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/store"
	"github.com/platformbuilds/vigil-core/pkg/cache"
	"github.com/platformbuilds/vigil-core/pkg/clock"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

// Dispatcher forwards detected events to the response orchestrator.
type Dispatcher interface {
	Dispatch(ev models.Event)
}

var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(union\s+select|drop\s+table|insert\s+into|delete\s+from|;\s*--|'\s*or\s+'?1'?\s*=\s*'?1|exec\s*\()`)
	scriptPattern       = regexp.MustCompile(`(?i)(<script[\s>]|javascript:|onerror\s*=|onload\s*=|document\.cookie)`)
	embeddedCodePattern = regexp.MustCompile(`(?i)(<\?php|eval\s*\(|base64_decode\s*\(|exec\s*\(|system\s*\()`)
)

var dangerousExtensions = map[string]bool{
	".exe": true, ".dll": true, ".bat": true, ".cmd": true,
	".sh": true, ".php": true, ".jsp": true, ".asp": true,
	".js": true, ".vbs": true, ".ps1": true, ".scr": true,
}

var privilegedRoles = map[string]bool{"admin": true, "manager": true}

// Detector runs the security rule set over per-request contexts.
type Detector struct {
	cfg        config.SecurityConfig
	logStore   *store.LogStore
	blocklist  *Blocklist
	reputation *reputation
	dispatcher Dispatcher
	clock      clock.Clock
	logger     logger.Logger

	mu      sync.Mutex
	history []*models.SecurityEvent
}

func NewDetector(
	cfg config.SecurityConfig,
	ls *store.LogStore,
	kv cache.Store,
	dispatcher Dispatcher,
	clk clock.Clock,
	log logger.Logger,
) *Detector {
	ttl := time.Duration(cfg.ReputationTTLHours) * time.Hour
	return &Detector{
		cfg:        cfg,
		logStore:   ls,
		blocklist:  NewBlocklist(kv, ttl, log),
		reputation: &reputation{store: kv, ttl: ttl},
		dispatcher: dispatcher,
		clock:      clk,
		logger:     log.With("component", "security-detector"),
	}
}

// Blocklist exposes the shared blocklist for action wiring and queries.
func (d *Detector) Blocklist() *Blocklist { return d.blocklist }

// Check runs all pattern rules against one request context. At most one
// event is produced per call: rules evaluate in fixed order (brute force,
// injection, malicious upload, privilege escalation) and the first match
// wins. Missing optional fields mean "rule does not match", never an
// error.
func (d *Detector) Check(ctx context.Context, sc *models.SecurityContext) (*models.SecurityEvent, error) {
	if sc == nil {
		return nil, nil
	}

	checks := []func(*models.SecurityContext) *models.SecurityEvent{
		d.checkBruteForce,
		d.checkInjection,
		d.checkMaliciousUpload,
		d.checkPrivilegeEscalation,
	}

	for _, check := range checks {
		ev := check(sc)
		if ev == nil {
			continue
		}
		d.emit(ctx, ev)
		return ev, nil
	}
	return nil, nil
}

func (d *Detector) newEvent(t models.SecurityEventType, sev models.Severity, title, desc string, src models.EventSource) *models.SecurityEvent {
	return &models.SecurityEvent{
		ID:          uuid.NewString(),
		Type:        t,
		Severity:    sev,
		Title:       title,
		Description: desc,
		Timestamp:   d.clock.Now(),
		Source:      src,
		Details:     make(map[string]interface{}),
	}
}

// checkBruteForce flags a source IP accumulating authentication failures
// beyond the configured threshold inside the window. The auth-failure
// trail comes from the log store, recorded by the embedding app's login
// handlers.
func (d *Detector) checkBruteForce(sc *models.SecurityContext) *models.SecurityEvent {
	ip := sc.Source.IP
	if ip == "" || !sc.AuthFailed {
		return nil
	}

	now := d.clock.Now()
	failures := d.logStore.Query(store.LogFilter{
		From:       now.Add(-d.cfg.BruteForceWindow()),
		Contains:   "authentication failed",
		DataEquals: map[string]string{"ip": ip},
	})
	// the failing request being checked has not been recorded yet
	if len(failures)+1 < d.cfg.BruteForceThreshold {
		return nil
	}

	ev := d.newEvent(
		models.EventBruteForce,
		models.SeverityHigh,
		"Brute force attack detected",
		fmt.Sprintf("%d authentication failures from %s within %s", len(failures)+1, ip, d.cfg.BruteForceWindow()),
		sc.Source,
	)
	ev.Details["failure_count"] = len(failures) + 1
	ev.Details["window_seconds"] = d.cfg.BruteForceWindowSeconds
	return ev
}

// checkInjection flags SQL and script injection patterns in the request
// payload.
func (d *Detector) checkInjection(sc *models.SecurityContext) *models.SecurityEvent {
	if sc.Payload == "" {
		return nil
	}
	var matched string
	switch {
	case sqlInjectionPattern.MatchString(sc.Payload):
		matched = "sql"
	case scriptPattern.MatchString(sc.Payload):
		matched = "script"
	default:
		return nil
	}

	ev := d.newEvent(
		models.EventInjectionAttempt,
		models.SeverityHigh,
		"Injection attempt detected",
		fmt.Sprintf("%s injection pattern in request payload for %s", matched, sc.Source.Endpoint),
		sc.Source,
	)
	ev.Details["pattern_kind"] = matched
	return ev
}

// checkMaliciousUpload flags dangerous file extensions and embedded
// executable code in uploaded content.
func (d *Detector) checkMaliciousUpload(sc *models.SecurityContext) *models.SecurityEvent {
	if sc.UploadName == "" {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(sc.UploadName))
	byExt := dangerousExtensions[ext]
	byContent := sc.UploadSample != "" && embeddedCodePattern.MatchString(sc.UploadSample)
	if !byExt && !byContent {
		return nil
	}

	reason := "dangerous file extension"
	if byContent {
		reason = "embedded executable code"
	}
	ev := d.newEvent(
		models.EventMaliciousUpload,
		models.SeverityHigh,
		"Malicious upload detected",
		fmt.Sprintf("upload %q rejected: %s", sc.UploadName, reason),
		sc.Source,
	)
	ev.Details["file_name"] = sc.UploadName
	ev.Details["extension"] = ext
	return ev
}

// checkPrivilegeEscalation flags a role transition into a privileged
// role from a non-privileged one, and access to admin-prefixed resources
// by non-privileged roles.
func (d *Detector) checkPrivilegeEscalation(sc *models.SecurityContext) *models.SecurityEvent {
	roleJump := privilegedRoles[sc.Role] && sc.PriorRole != "" && !privilegedRoles[sc.PriorRole]
	adminPath := strings.HasPrefix(sc.Source.Endpoint, "/admin") && sc.Role != "" && !privilegedRoles[sc.Role]
	if !roleJump && !adminPath {
		return nil
	}

	desc := fmt.Sprintf("role transition %q -> %q", sc.PriorRole, sc.Role)
	if adminPath {
		desc = fmt.Sprintf("role %q accessed admin resource %s", sc.Role, sc.Source.Endpoint)
	}
	ev := d.newEvent(
		models.EventPrivilegeEscalation,
		models.SeverityCritical,
		"Privilege escalation detected",
		desc,
		sc.Source,
	)
	ev.Details["role"] = sc.Role
	ev.Details["prior_role"] = sc.PriorRole
	return ev
}

// emit persists, dispatches, and applies reputation accounting for one
// detected event. Reputation or blocklist failures degrade to log
// entries; detection results still reach the caller.
func (d *Detector) emit(ctx context.Context, ev *models.SecurityEvent) {
	metrics.SecurityEventsTotal.WithLabelValues(string(ev.Type), string(ev.Severity)).Inc()

	d.mu.Lock()
	d.history = append(d.history, ev)
	if len(d.history) > historyLimit {
		d.history = append([]*models.SecurityEvent(nil), d.history[len(d.history)/2:]...)
	}
	d.mu.Unlock()

	d.logStore.Record(models.LogEntry{
		Level:     models.LevelWarn,
		Component: "security-detector",
		Message:   fmt.Sprintf("security event: %s", ev.Type),
		Data: map[string]interface{}{
			"event_id": ev.ID,
			"type":     string(ev.Type),
			"ip":       ev.Source.IP,
			"endpoint": ev.Source.Endpoint,
		},
	})

	d.logger.Warn("Security event detected",
		"event_id", ev.ID,
		"type", ev.Type,
		"severity", ev.Severity,
		"ip", ev.Source.IP,
	)

	if d.dispatcher != nil {
		d.dispatcher.Dispatch(ev)
	}

	if ev.Source.IP == "" {
		return
	}
	count, err := d.reputation.record(ctx, ev.Source.IP)
	if err != nil {
		d.logger.Error("Reputation update failed", "ip", ev.Source.IP, "error", err)
		return
	}
	if int(count) >= d.cfg.ReputationThreshold {
		// repeat offender: block regardless of the individual event's actions
		if err := d.blocklist.Block(ctx, ev.Source.IP, fmt.Sprintf("reputation threshold reached (%d events)", count)); err != nil {
			d.logger.Error("Automatic IP block failed", "ip", ev.Source.IP, "error", err)
		}
	}
}

const historyLimit = 1000

// Summary aggregates detected events over the trailing window.
func (d *Detector) Summary(ctx context.Context, window time.Duration) *models.SecuritySummary {
	cutoff := d.clock.Now().Add(-window)

	d.mu.Lock()
	events := make([]*models.SecurityEvent, len(d.history))
	copy(events, d.history)
	d.mu.Unlock()

	s := &models.SecuritySummary{
		Window:     window,
		ByType:     make(map[models.SecurityEventType]int),
		BySeverity: make(map[models.Severity]int),
	}
	ips := make(map[string]bool)
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		s.Total++
		s.ByType[ev.Type]++
		s.BySeverity[ev.Severity]++
		if ev.Source.IP != "" {
			ips[ev.Source.IP] = true
		}
	}
	s.UniqueIPs = len(ips)

	if blocked, err := d.blocklist.Blocked(ctx); err == nil {
		s.BlockedIPs = blocked
	}
	return s
}
