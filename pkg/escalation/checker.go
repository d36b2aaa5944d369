// Package escalation detects workflow executions that have been in progress
// longer than their rule's escalation timeout allows.
package escalation

import (
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
)

// Check computes escalation directives for the given executions against the
// current rule set. Pure: it mutates nothing; applying a directive
// (reassignment, notification) is the caller's job. Executions whose rule is
// gone or declares no escalations are skipped.
func Check(executions []*models.WorkflowExecution, rulesByID map[string]*models.RoutingRule, now time.Time) []models.Escalation {
	var escalations []models.Escalation

	for _, execution := range executions {
		if execution.Status != models.ExecutionInProgress {
			continue
		}

		rule, ok := rulesByID[execution.RuleID]
		if !ok || len(rule.Escalations) == 0 {
			continue
		}

		elapsed := now.Sub(execution.StartedAt)

		for _, escalationRule := range rule.Escalations {
			timeout := time.Duration(escalationRule.TimeoutHours * float64(time.Hour))
			if elapsed < timeout {
				continue
			}

			escalations = append(escalations, models.Escalation{
				ExecutionID: execution.ID,
				RuleID:      rule.ID,
				LeadID:      execution.LeadID,
				EscalateTo:  escalationRule.EscalateTo,
				Reason:      escalationRule.Reason,
				Elapsed:     elapsed,
			})
		}
	}

	return escalations
}
