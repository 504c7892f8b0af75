package models

import "time"

// GovernanceEventType identifies the violated AI-output dimension.
type GovernanceEventType string

const (
	EventPromptInjection     GovernanceEventType = "PROMPT_INJECTION"
	EventDataLeak            GovernanceEventType = "DATA_LEAK"
	EventToxicContent        GovernanceEventType = "TOXIC_CONTENT"
	EventBiasDetected        GovernanceEventType = "BIAS_DETECTED"
	EventComplianceViolation GovernanceEventType = "COMPLIANCE_VIOLATION"
)

// AIInteraction is one prompt/response pair checked at generation time.
// ToxicityScore is optional and supplied by an external scoring model;
// a negative value means "not scored".
type AIInteraction struct {
	ModelID       string      `json:"model_id"`
	Prompt        string      `json:"prompt"`
	Response      string      `json:"response,omitempty"`
	Source        EventSource `json:"source"`
	ToxicityScore float64     `json:"toxicity_score,omitempty"`
}

// AIGovernanceEvent is an alert-like record for one violated governance
// dimension. Prompt and Response are stored redacted; raw sensitive text
// is never retained.
type AIGovernanceEvent struct {
	ID          string                 `json:"id"`
	Type        GovernanceEventType    `json:"type"`
	Severity    Severity               `json:"severity"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ModelID     string                 `json:"model_id"`
	Prompt      string                 `json:"prompt"`
	Response    string                 `json:"response,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Source      EventSource            `json:"source"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Actions     []string               `json:"actions,omitempty"`
}

// RecordActions appends the IDs of the actions this event triggered.
// Called once by the response orchestrator at dispatch time.
func (e *AIGovernanceEvent) RecordActions(ids []string) {
	e.Actions = append(e.Actions, ids...)
}

func (e *AIGovernanceEvent) EventID() string         { return e.ID }
func (e *AIGovernanceEvent) EventSeverity() Severity { return e.Severity }
func (e *AIGovernanceEvent) EventCategory() Category { return CategoryAIGovernance }
func (e *AIGovernanceEvent) EventRuleID() string     { return string(e.Type) }
func (e *AIGovernanceEvent) EventTitle() string      { return e.Title }

// EventOrigin exposes the interaction source for actions that key on it.
func (e *AIGovernanceEvent) EventOrigin() EventSource { return e.Source }

// GovernanceResult is returned to the generation path that invoked the
// check. When Blocked is true the caller must serve SafeResponse instead
// of the model output.
type GovernanceResult struct {
	Events       []*AIGovernanceEvent `json:"events"`
	Blocked      bool                 `json:"blocked"`
	SafeResponse string               `json:"safe_response,omitempty"`
}

type GovernanceSummary struct {
	Window     time.Duration               `json:"window"`
	Total      int                         `json:"total"`
	ByType     map[GovernanceEventType]int `json:"by_type"`
	BySeverity map[Severity]int            `json:"by_severity"`
	ByModel    map[string]int              `json:"by_model"`
	Blocked    int                         `json:"blocked"`
}
