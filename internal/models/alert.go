package models

import "time"

// Severity ranks alerts and events for routing and escalation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert categories used by the built-in rule set. Rules may declare
// their own category strings; these are the ones dashboards group by.
const (
	CategoryPerformance  Category = "performance"
	CategoryAvailability Category = "availability"
	CategoryDatabase     Category = "database"
	CategorySecurity     Category = "security"
	CategoryAIGovernance Category = "ai_governance"
	CategoryBusiness     Category = "business"
	CategoryInternal     Category = "internal"
)

type Category = string

// AlertContext is the read-only view a rule condition evaluates against.
// Metrics and Logs are snapshot copies bounded to TimeWindow; conditions
// must not mutate them.
type AlertContext struct {
	Metrics    []Metric
	Logs       []LogEntry
	TimeWindow time.Duration
	Now        time.Time
}

// MetricsNamed returns the samples in the context carrying the given name.
func (c *AlertContext) MetricsNamed(name string) []Metric {
	var out []Metric
	for _, m := range c.Metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// AlertRule pairs an identity with a pure condition over an AlertContext.
// Condition must be side-effect free and return false on insufficient data.
type AlertRule struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Category  Category                 `json:"category"`
	Severity  Severity                 `json:"severity"`
	Cooldown  time.Duration            `json:"cooldown"`
	Enabled   bool                     `json:"enabled"`
	Condition func(*AlertContext) bool `json:"-"`
}

// Alert is an emitted signal that a rule condition was met. Immutable after
// creation except for the resolution fields, which transition exactly once.
type Alert struct {
	ID          string            `json:"id"`
	RuleID      string            `json:"rule_id"`
	Severity    Severity          `json:"severity"`
	Category    Category          `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Tags        map[string]string `json:"tags,omitempty"`
	Resolved    bool              `json:"resolved"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy  string            `json:"resolved_by,omitempty"`
}

// Event is the common view the response orchestrator dispatches on.
// Implemented by Alert, SecurityEvent and AIGovernanceEvent.
type Event interface {
	EventID() string
	EventSeverity() Severity
	EventCategory() Category
	EventRuleID() string
	EventTitle() string
}

func (a *Alert) EventID() string         { return a.ID }
func (a *Alert) EventSeverity() Severity { return a.Severity }
func (a *Alert) EventCategory() Category { return a.Category }
func (a *Alert) EventRuleID() string     { return a.RuleID }
func (a *Alert) EventTitle() string      { return a.Title }

// AlertSummary is the dashboard aggregate over a query window.
type AlertSummary struct {
	Window     time.Duration    `json:"window"`
	Total      int              `json:"total"`
	Active     int              `json:"active"`
	Resolved   int              `json:"resolved"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByCategory map[Category]int `json:"by_category"`
}
