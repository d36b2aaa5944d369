package models

import "time"

// Escalation is a directive produced by the escalation checker. The checker
// never applies it; the caller performs the reassignment or notification.
type Escalation struct {
	ExecutionID string        `json:"execution_id"`
	RuleID      string        `json:"rule_id"`
	LeadID      string        `json:"lead_id"`
	EscalateTo  string        `json:"escalate_to"`
	Reason      string        `json:"reason"`
	Elapsed     time.Duration `json:"elapsed"`
}
