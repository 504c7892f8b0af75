package models

import "time"

// SecurityEventType identifies the matched attack pattern.
type SecurityEventType string

const (
	EventBruteForce          SecurityEventType = "BRUTE_FORCE_ATTACK"
	EventInjectionAttempt    SecurityEventType = "INJECTION_ATTEMPT"
	EventMaliciousUpload     SecurityEventType = "MALICIOUS_UPLOAD"
	EventPrivilegeEscalation SecurityEventType = "PRIVILEGE_ESCALATION"
	EventIPBlocked           SecurityEventType = "IP_BLOCKED"
)

// EventSource describes where a suspicious request or AI interaction
// originated. All fields are optional; detectors treat missing fields
// as "rule does not match".
type EventSource struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
}

// SecurityContext carries the per-request data the security detector
// inspects. It is built by the embedding application's request handlers.
type SecurityContext struct {
	Source       EventSource `json:"source"`
	Payload      string      `json:"payload,omitempty"` // query string + body, as captured
	UploadName   string      `json:"upload_name,omitempty"`
	UploadSample string      `json:"upload_sample,omitempty"` // leading bytes of an uploaded file
	Role         string      `json:"role,omitempty"`
	PriorRole    string      `json:"prior_role,omitempty"`
	AuthFailed   bool        `json:"auth_failed,omitempty"`
}

// SecurityEvent is an alert-like record produced by the security detector.
type SecurityEvent struct {
	ID          string                 `json:"id"`
	Type        SecurityEventType      `json:"type"`
	Severity    Severity               `json:"severity"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Timestamp   time.Time              `json:"timestamp"`
	Source      EventSource            `json:"source"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Actions     []string               `json:"actions,omitempty"` // action IDs triggered by this event
}

// RecordActions appends the IDs of the actions this event triggered.
// Called once by the response orchestrator at dispatch time.
func (e *SecurityEvent) RecordActions(ids []string) {
	e.Actions = append(e.Actions, ids...)
}

func (e *SecurityEvent) EventID() string         { return e.ID }
func (e *SecurityEvent) EventSeverity() Severity { return e.Severity }
func (e *SecurityEvent) EventCategory() Category { return CategorySecurity }
func (e *SecurityEvent) EventRuleID() string     { return string(e.Type) }
func (e *SecurityEvent) EventTitle() string      { return e.Title }

// EventOrigin exposes the request source for actions that key on it.
func (e *SecurityEvent) EventOrigin() EventSource { return e.Source }

type SecuritySummary struct {
	Window     time.Duration             `json:"window"`
	Total      int                       `json:"total"`
	ByType     map[SecurityEventType]int `json:"by_type"`
	BySeverity map[Severity]int          `json:"by_severity"`
	UniqueIPs  int                       `json:"unique_ips"`
	BlockedIPs []string                  `json:"blocked_ips,omitempty"`
}
