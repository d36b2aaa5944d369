package models

// ConditionType selects where the evaluator resolves the actual value from.
type ConditionType string

const (
	ConditionScoreRange  ConditionType = "score_range"
	ConditionQuality     ConditionType = "quality"
	ConditionDemographic ConditionType = "demographic"
	ConditionBehavioral  ConditionType = "behavioral"
	ConditionIntent      ConditionType = "intent"
	ConditionEngagement  ConditionType = "engagement"
	ConditionCustom      ConditionType = "custom"
)

type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
	OperatorIn          ConditionOperator = "in"
	OperatorNotIn       ConditionOperator = "not_in"
)

// LogicalOperator combines a condition's result with the result of the next
// condition in the list.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition is a single predicate over a lead's profile or score.
// Within a rule, conditions are folded left to right: each condition's
// Logical operator joins it with the condition that follows it.
type Condition struct {
	Type     ConditionType     `json:"type"     validate:"required"`
	Field    string            `json:"field,omitempty"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value"`
	Logical  LogicalOperator   `json:"logical_operator,omitempty"`
}
