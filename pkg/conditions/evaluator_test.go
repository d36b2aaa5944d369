package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcamillo/leadflow/pkg/models"
)

func testProfile() *models.LeadProfile {
	return &models.LeadProfile{
		ID:    "lead-1",
		Email: "ana@example.com",
		Phone: "+15550100",
		Demographic: map[string]any{
			"industry":     "fintech",
			"company_size": 250,
		},
		Behavioral: map[string]any{
			"pages_visited": []any{"pricing", "docs", "careers"},
			"visit_count":   7,
		},
		Intent: map[string]any{
			"urgency": "immediate",
		},
		Engagement: map[string]any{
			"email_opens": 3,
		},
	}
}

func testScore() *models.LeadScore {
	return &models.LeadScore{
		TotalScore: 450,
		Quality:    models.QualityHot,
	}
}

func TestEvaluate(t *testing.T) {
	profile := testProfile()
	score := testScore()

	tests := []struct {
		name     string
		cond     models.Condition
		expected bool
	}{
		{
			name:     "quality equals",
			cond:     models.Condition{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "hot"},
			expected: true,
		},
		{
			name:     "quality not equals",
			cond:     models.Condition{Type: models.ConditionQuality, Operator: models.OperatorNotEquals, Value: "cold"},
			expected: true,
		},
		{
			name:     "score greater than",
			cond:     models.Condition{Type: models.ConditionScoreRange, Operator: models.OperatorGreaterThan, Value: 400},
			expected: true,
		},
		{
			name:     "score less than fails",
			cond:     models.Condition{Type: models.ConditionScoreRange, Operator: models.OperatorLessThan, Value: 400},
			expected: false,
		},
		{
			name:     "greater than on non numeric value is false",
			cond:     models.Condition{Type: models.ConditionIntent, Field: "urgency", Operator: models.OperatorGreaterThan, Value: 10},
			expected: false,
		},
		{
			name:     "demographic equals mixed numeric types",
			cond:     models.Condition{Type: models.ConditionDemographic, Field: "company_size", Operator: models.OperatorEquals, Value: 250.0},
			expected: true,
		},
		{
			name:     "contains on list",
			cond:     models.Condition{Type: models.ConditionBehavioral, Field: "pages_visited", Operator: models.OperatorContains, Value: "pricing"},
			expected: true,
		},
		{
			name:     "not contains on list",
			cond:     models.Condition{Type: models.ConditionBehavioral, Field: "pages_visited", Operator: models.OperatorNotContains, Value: "blog"},
			expected: true,
		},
		{
			name:     "contains substring on scalar",
			cond:     models.Condition{Type: models.ConditionIntent, Field: "urgency", Operator: models.OperatorContains, Value: "imme"},
			expected: true,
		},
		{
			name:     "in list",
			cond:     models.Condition{Type: models.ConditionDemographic, Field: "industry", Operator: models.OperatorIn, Value: []any{"fintech", "saas"}},
			expected: true,
		},
		{
			name:     "in with non-list value degrades to false",
			cond:     models.Condition{Type: models.ConditionDemographic, Field: "industry", Operator: models.OperatorIn, Value: "fintech"},
			expected: false,
		},
		{
			name:     "not_in with non-list value degrades to true",
			cond:     models.Condition{Type: models.ConditionDemographic, Field: "industry", Operator: models.OperatorNotIn, Value: "fintech"},
			expected: true,
		},
		{
			name:     "not_in list",
			cond:     models.Condition{Type: models.ConditionDemographic, Field: "industry", Operator: models.OperatorNotIn, Value: []any{"retail"}},
			expected: true,
		},
		{
			name:     "unknown type is false",
			cond:     models.Condition{Type: "firmographic", Operator: models.OperatorEquals, Value: "x"},
			expected: false,
		},
		{
			name:     "missing field not_equals holds",
			cond:     models.Condition{Type: models.ConditionEngagement, Field: "nonexistent", Operator: models.OperatorNotEquals, Value: "x"},
			expected: true,
		},
		{
			name:     "custom type searches all groups",
			cond:     models.Condition{Type: models.ConditionCustom, Field: "urgency", Operator: models.OperatorEquals, Value: "immediate"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.cond, profile, score))
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	profile := testProfile()
	score := testScore()
	cond := models.Condition{Type: models.ConditionScoreRange, Operator: models.OperatorGreaterThan, Value: 100}

	first := Evaluate(cond, profile, score)
	second := Evaluate(cond, profile, score)

	assert.Equal(t, first, second)
	assert.True(t, first)
}

func TestEvaluateAll(t *testing.T) {
	profile := testProfile()
	score := testScore()

	tests := []struct {
		name     string
		conds    []models.Condition
		expected bool
	}{
		{
			name:     "empty list always matches",
			conds:    nil,
			expected: true,
		},
		{
			name: "and fold",
			conds: []models.Condition{
				{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "hot", Logical: models.LogicalAnd},
				{Type: models.ConditionScoreRange, Operator: models.OperatorGreaterThan, Value: 400},
			},
			expected: true,
		},
		{
			name: "and fold short result",
			conds: []models.Condition{
				{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "cold", Logical: models.LogicalAnd},
				{Type: models.ConditionScoreRange, Operator: models.OperatorGreaterThan, Value: 400},
			},
			expected: false,
		},
		{
			name: "or rescues false head",
			conds: []models.Condition{
				{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "cold", Logical: models.LogicalOr},
				{Type: models.ConditionScoreRange, Operator: models.OperatorGreaterThan, Value: 400},
			},
			expected: true,
		},
		{
			name: "missing logical operator defaults to and",
			conds: []models.Condition{
				{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "hot"},
				{Type: models.ConditionIntent, Field: "urgency", Operator: models.OperatorEquals, Value: "low"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EvaluateAll(tt.conds, profile, score))
		})
	}
}
