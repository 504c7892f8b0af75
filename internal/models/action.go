package models

import "time"

// TriggerConditions gate an action to a subset of events. Empty fields
// act as wildcards: an action with zero conditions runs for every event.
type TriggerConditions struct {
	Severities []Severity `json:"severities,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	RuleIDs    []string   `json:"rule_ids,omitempty"`
}

// Matches reports whether the event satisfies every non-empty condition.
func (tc TriggerConditions) Matches(ev Event) bool {
	if len(tc.Severities) > 0 && !contains(tc.Severities, ev.EventSeverity()) {
		return false
	}
	if len(tc.Categories) > 0 && !contains(tc.Categories, ev.EventCategory()) {
		return false
	}
	if len(tc.RuleIDs) > 0 && !contains(tc.RuleIDs, ev.EventRuleID()) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

// ActionExecution is one audit record of an action attempt for an event.
type ActionExecution struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	ActionID   string    `json:"action_id"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs float64   `json:"duration_ms"`
}
