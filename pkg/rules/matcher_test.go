package rules

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcamillo/leadflow/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func hotLead() (*models.LeadProfile, *models.LeadScore) {
	return &models.LeadProfile{ID: "lead-hot"},
		&models.LeadScore{TotalScore: 420, Quality: models.QualityHot}
}

func TestMatcher_HotLeadScenario(t *testing.T) {
	matcher := NewMatcher(testLogger())
	repo := NewDefaultRepository()
	profile, score := hotLead()

	matched := matcher.Match(profile, score, repo.FetchAll())

	names := make([]string, 0, len(matched))
	for _, rule := range matched {
		names = append(names, rule.ID)
	}

	assert.Contains(t, names, "hot_leads_immediate")
	assert.NotContains(t, names, "cold_leads_nurture")
}

func TestMatcher_ImmediateUrgencyOrdering(t *testing.T) {
	matcher := NewMatcher(testLogger())
	repo := NewDefaultRepository()

	profile := &models.LeadProfile{
		ID:     "lead-urgent",
		Intent: map[string]any{"urgency": "immediate"},
	}
	score := &models.LeadScore{TotalScore: 450, Quality: models.QualityHot}

	matched := matcher.Match(profile, score, repo.FetchAll())
	require.GreaterOrEqual(t, len(matched), 2)

	assert.Equal(t, "immediate_urgency_override", matched[0].ID)
	assert.Equal(t, "hot_leads_immediate", matched[1].ID)
}

func TestMatcher_EmptyConditionsAlwaysMatch(t *testing.T) {
	matcher := NewMatcher(testLogger())

	catchAll := taskRule("catch_all", 99)
	profile := &models.LeadProfile{ID: "lead-any"}
	score := &models.LeadScore{Quality: models.QualityCold}

	matched := matcher.Match(profile, score, []*models.RoutingRule{catchAll})
	require.Len(t, matched, 1)
	assert.Equal(t, "catch_all", matched[0].ID)
}

func TestMatcher_SkipsInactiveRules(t *testing.T) {
	matcher := NewMatcher(testLogger())

	inactive := taskRule("inactive", 1)
	inactive.IsActive = false

	profile := &models.LeadProfile{ID: "lead-any"}
	score := &models.LeadScore{Quality: models.QualityHot}

	matched := matcher.Match(profile, score, []*models.RoutingRule{inactive})
	assert.Empty(t, matched)
}

func TestMatcher_ResultsSortedByPriority(t *testing.T) {
	matcher := NewMatcher(testLogger())

	ruleset := []*models.RoutingRule{
		taskRule("c", 30),
		taskRule("a", 1),
		taskRule("b", 15),
	}

	profile := &models.LeadProfile{ID: "lead-any"}
	score := &models.LeadScore{Quality: models.QualityWarm}

	matched := matcher.Match(profile, score, ruleset)
	require.Len(t, matched, 3)

	for i := 1; i < len(matched); i++ {
		assert.LessOrEqual(t, matched[i-1].Priority, matched[i].Priority)
	}
}
