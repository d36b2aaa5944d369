// Package conditions evaluates routing rule conditions against a lead's
// profile and score. Evaluation is pure and never panics: malformed
// conditions degrade to a safe boolean instead of erroring out.
package conditions

import (
	"fmt"
	"strings"

	"github.com/gcamillo/leadflow/pkg/models"
)

// Evaluate resolves the condition's actual value from the profile or score
// and applies its operator. Unknown condition types evaluate to false.
func Evaluate(cond models.Condition, profile *models.LeadProfile, score *models.LeadScore) bool {
	if !knownType(cond.Type) {
		return false
	}

	actual, ok := resolve(cond, profile, score)
	if !ok {
		// Membership negations still hold for absent values.
		return cond.Operator == models.OperatorNotEquals ||
			cond.Operator == models.OperatorNotContains ||
			cond.Operator == models.OperatorNotIn
	}

	switch cond.Operator {
	case models.OperatorEquals:
		return valuesEqual(actual, cond.Value)
	case models.OperatorNotEquals:
		return !valuesEqual(actual, cond.Value)
	case models.OperatorGreaterThan:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a < b })
	case models.OperatorContains:
		return contains(actual, cond.Value)
	case models.OperatorNotContains:
		return !contains(actual, cond.Value)
	case models.OperatorIn:
		list, ok := asList(cond.Value)
		if !ok {
			return false
		}

		return listHas(list, actual)
	case models.OperatorNotIn:
		list, ok := asList(cond.Value)
		if !ok {
			return true
		}

		return !listHas(list, actual)
	default:
		return false
	}
}

// EvaluateAll folds the condition list left to right. Each condition's
// logical operator joins its result with the next condition; the first
// condition seeds the fold. An empty list always evaluates true, which is how
// catch-all rules are expressed.
func EvaluateAll(conds []models.Condition, profile *models.LeadProfile, score *models.LeadScore) bool {
	if len(conds) == 0 {
		return true
	}

	result := Evaluate(conds[0], profile, score)

	for i := 1; i < len(conds); i++ {
		next := Evaluate(conds[i], profile, score)

		if conds[i-1].Logical == models.LogicalOr {
			result = result || next
		} else {
			result = result && next
		}
	}

	return result
}

func knownType(t models.ConditionType) bool {
	switch t {
	case models.ConditionScoreRange, models.ConditionQuality, models.ConditionDemographic,
		models.ConditionBehavioral, models.ConditionIntent, models.ConditionEngagement,
		models.ConditionCustom:
		return true
	default:
		return false
	}
}

func resolve(cond models.Condition, profile *models.LeadProfile, score *models.LeadScore) (any, bool) {
	switch cond.Type {
	case models.ConditionScoreRange:
		if score == nil {
			return nil, false
		}

		if cond.Field != "" && cond.Field != "total_score" {
			value, ok := score.Fields[cond.Field]

			return value, ok
		}

		return score.TotalScore, true
	case models.ConditionQuality:
		if score == nil {
			return nil, false
		}

		return string(score.Quality), true
	default:
		if profile == nil {
			return nil, false
		}

		return profile.Attribute(cond.Type, cond.Field)
	}
}

func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}

		return false
	}

	return asString(a) == asString(b)
}

func compareNumeric(actual, expected any, cmp func(a, b float64) bool) bool {
	af, aok := asFloat(actual)
	bf, bok := asFloat(expected)

	if !aok || !bok {
		return false
	}

	return cmp(af, bf)
}

func contains(actual, expected any) bool {
	if list, ok := asList(actual); ok {
		return listHas(list, expected)
	}

	return strings.Contains(asString(actual), asString(expected))
}

func listHas(list []any, value any) bool {
	for _, item := range list {
		if valuesEqual(item, value) {
			return true
		}
	}

	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case models.LeadQuality:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}

		return out, true
	case []float64:
		out := make([]any, len(list))
		for i, f := range list {
			out[i] = f
		}

		return out, true
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}

		return out, true
	default:
		return nil, false
	}
}
