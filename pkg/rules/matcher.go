package rules

import (
	"log/slog"
	"sort"

	"github.com/gcamillo/leadflow/pkg/conditions"
	"github.com/gcamillo/leadflow/pkg/models"
)

// Matcher filters routing rules against a lead. Every matching rule is
// returned; execution is not first-match-wins.
type Matcher struct {
	logger *slog.Logger
}

func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{
		logger: logger.With("module", "rule_matcher"),
	}
}

// Match returns the active rules whose condition fold evaluates true for the
// lead, sorted by ascending priority. Rules with no conditions always match.
func (m *Matcher) Match(profile *models.LeadProfile, score *models.LeadScore, rules []*models.RoutingRule) []*models.RoutingRule {
	matched := make([]*models.RoutingRule, 0, len(rules))

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		if conditions.EvaluateAll(rule.Conditions, profile, score) {
			matched = append(matched, rule)

			m.logger.Debug("Rule matched lead",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"lead_id", profile.ID,
				"priority", rule.Priority)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority < matched[j].Priority
	})

	m.logger.Info("Completed rule matching",
		"lead_id", profile.ID,
		"quality", score.Quality,
		"matches_found", len(matched))

	return matched
}
