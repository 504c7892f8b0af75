package response

import (
	"context"

	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/pkg/notifier"
)

// IPBlocker applies network-level blocks. Implemented by the security
// package's blocklist; Block must be idempotent.
type IPBlocker interface {
	Block(ctx context.Context, ip, reason string) error
}

// Hook is an embedder-supplied remediation callback (autoscaler call,
// cache flush, file quarantine). A nil hook makes the action a no-op
// that still produces audit records.
type Hook func(ctx context.Context, ev models.Event) error

// sourced is implemented by events that carry a request origin.
type sourced interface {
	EventOrigin() models.EventSource
}

func runHook(hook Hook) func(ctx context.Context, ev models.Event) error {
	return func(ctx context.Context, ev models.Event) error {
		if hook == nil {
			return nil
		}
		return hook(ctx, ev)
	}
}

// NotifyTeamAction forwards high-severity events to the notifier.
func NotifyTeamAction(n notifier.Notifier) *Action {
	return &Action{
		ID:      "notify_team",
		Name:    "Notify on-call team",
		Enabled: true,
		Trigger: models.TriggerConditions{
			Severities: []models.Severity{models.SeverityHigh, models.SeverityCritical},
		},
		Run: func(ctx context.Context, ev models.Event) error {
			return n.Notify(ctx, notifier.Payload{
				ID:       ev.EventID(),
				Type:     ev.EventCategory(),
				Title:    ev.EventTitle(),
				Message:  ev.EventTitle(),
				Severity: string(ev.EventSeverity()),
			})
		},
	}
}

// BlockIPAction blocks the offending source IP for security events.
// Events without a source IP pass through as a successful no-op, and
// re-blocking an already blocked IP is a no-op in the blocklist.
func BlockIPAction(blocker IPBlocker) *Action {
	return &Action{
		ID:      "block_ip",
		Name:    "Block source IP",
		Enabled: true,
		Trigger: models.TriggerConditions{
			Categories: []models.Category{models.CategorySecurity},
			Severities: []models.Severity{models.SeverityHigh, models.SeverityCritical},
		},
		Run: func(ctx context.Context, ev models.Event) error {
			src, ok := ev.(sourced)
			if !ok || src.EventOrigin().IP == "" {
				return nil
			}
			return blocker.Block(ctx, src.EventOrigin().IP, ev.EventRuleID())
		},
	}
}

// ScaleUpAction asks the embedder to add capacity when availability or
// performance alerts reach critical severity.
func ScaleUpAction(hook Hook) *Action {
	return &Action{
		ID:      "scale_up",
		Name:    "Scale up serving capacity",
		Enabled: true,
		Trigger: models.TriggerConditions{
			Categories: []models.Category{models.CategoryPerformance, models.CategoryAvailability},
			Severities: []models.Severity{models.SeverityCritical},
		},
		Run: runHook(hook),
	}
}

// ClearCacheAction flushes application caches on performance or database
// degradation.
func ClearCacheAction(hook Hook) *Action {
	return &Action{
		ID:      "clear_cache",
		Name:    "Clear application caches",
		Enabled: true,
		Trigger: models.TriggerConditions{
			Categories: []models.Category{models.CategoryPerformance, models.CategoryDatabase},
		},
		Run: runHook(hook),
	}
}

// QuarantineUploadAction isolates a flagged upload for manual review.
func QuarantineUploadAction(hook Hook) *Action {
	return &Action{
		ID:      "quarantine_upload",
		Name:    "Quarantine uploaded file",
		Enabled: true,
		Trigger: models.TriggerConditions{
			RuleIDs: []string{string(models.EventMaliciousUpload)},
		},
		Run: runHook(hook),
	}
}

// BlockResponseAction audits governance violations whose model output
// was withheld. The substitution itself happens synchronously on the
// generation path; this action exists so blocked responses show up in
// the execution log.
func BlockResponseAction() *Action {
	return &Action{
		ID:      "block_response",
		Name:    "Block model response",
		Enabled: true,
		Trigger: models.TriggerConditions{
			RuleIDs: []string{
				string(models.EventPromptInjection),
				string(models.EventDataLeak),
				string(models.EventToxicContent),
			},
		},
		Run: func(ctx context.Context, ev models.Event) error { return nil },
	}
}
