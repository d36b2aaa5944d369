package models

import "time"

// RoutingRule matches incoming leads against its conditions and, when matched,
// drives an ordered action pipeline. Identity is the immutable ID assigned at
// creation; everything else is mutable through the rule repository.
type RoutingRule struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description"`
	Conditions  []Condition      `json:"conditions"`
	Actions     []Action         `json:"actions"     validate:"required,min=1,dive"`
	Priority    int              `json:"priority"`
	IsActive    bool             `json:"is_active"`
	Escalations []EscalationRule `json:"escalations,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// EscalationRule declares a wall-clock timeout for executions of this rule
// that are still in progress.
type EscalationRule struct {
	TimeoutHours float64 `json:"timeout_hours" validate:"required,gt=0"`
	EscalateTo   string  `json:"escalate_to"   validate:"required"`
	Reason       string  `json:"reason,omitempty"`
}
