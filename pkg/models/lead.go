// Package models defines the core domain models for lead routing and nurturing.
package models

// LeadQuality is the scoring bucket assigned by the lead scoring engine.
type LeadQuality string

const (
	QualityHot  LeadQuality = "hot"
	QualityWarm LeadQuality = "warm"
	QualityCold LeadQuality = "cold"
)

// LeadProfile is owned by the scoring subsystem and consumed read-only.
// Each attribute group is a flat mapping of field name to value.
type LeadProfile struct {
	ID          string         `json:"id"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Demographic map[string]any `json:"demographic,omitempty"`
	Behavioral  map[string]any `json:"behavioral,omitempty"`
	Intent      map[string]any `json:"intent,omitempty"`
	Engagement  map[string]any `json:"engagement,omitempty"`
}

// Attribute resolves a field from the attribute group matching the condition type.
// The second return reports whether the field is present.
func (p *LeadProfile) Attribute(conditionType ConditionType, field string) (any, bool) {
	var group map[string]any

	switch conditionType {
	case ConditionDemographic:
		group = p.Demographic
	case ConditionBehavioral:
		group = p.Behavioral
	case ConditionIntent:
		group = p.Intent
	case ConditionEngagement:
		group = p.Engagement
	case ConditionCustom:
		// Custom conditions are not bound to a group; first match wins.
		for _, g := range []map[string]any{p.Demographic, p.Behavioral, p.Intent, p.Engagement} {
			if value, ok := g[field]; ok {
				return value, true
			}
		}

		return nil, false
	default:
		return nil, false
	}

	value, ok := group[field]

	return value, ok
}

// LeadScore is the opaque output of the external scoring engine.
type LeadScore struct {
	TotalScore float64        `json:"total_score"`
	Quality    LeadQuality    `json:"quality"`
	Fields     map[string]any `json:"fields,omitempty"`
}
