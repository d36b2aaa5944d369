package rules

import "github.com/gcamillo/leadflow/pkg/models"

// DefaultRules is the rule set the engine ships with. Hosts typically replace
// or extend these through the configuration API.
func DefaultRules() []*models.RoutingRule {
	return []*models.RoutingRule{
		{
			ID:          "immediate_urgency_override",
			Name:        "Immediate Urgency Override",
			Description: "Leads declaring immediate buying intent bypass normal routing",
			Priority:    0,
			IsActive:    true,
			Conditions: []models.Condition{
				{
					Type:     models.ConditionIntent,
					Field:    "urgency",
					Operator: models.OperatorEquals,
					Value:    "immediate",
					Logical:  models.LogicalAnd,
				},
				{
					Type:     models.ConditionScoreRange,
					Operator: models.OperatorGreaterThan,
					Value:    400,
				},
			},
			Actions: []models.Action{
				{
					Type:   models.ActionAssignToUser,
					Assign: &models.AssignConfig{UserID: "senior-closer", Priority: "urgent", Notify: true},
				},
				{
					Type: models.ActionScheduleCall,
					Call: &models.CallConfig{AssignTo: models.AssignedUserRef, WithinHours: 1, Notes: "Immediate urgency lead"},
				},
			},
			Escalations: []models.EscalationRule{
				{TimeoutHours: 1, EscalateTo: "sales-director", Reason: "immediate urgency lead untouched"},
			},
		},
		{
			ID:          "hot_leads_immediate",
			Name:        "Hot Leads Immediate Response",
			Description: "Hot leads get an owner, a welcome email, a follow-up task and a call",
			Priority:    1,
			IsActive:    true,
			Conditions: []models.Condition{
				{
					Type:     models.ConditionQuality,
					Operator: models.OperatorEquals,
					Value:    "hot",
				},
			},
			Actions: []models.Action{
				{
					Type:   models.ActionAssignToUser,
					Assign: &models.AssignConfig{UserID: "sales-team-lead", Priority: "high", Notify: true},
				},
				{
					Type:  models.ActionSendEmail,
					Email: &models.EmailConfig{Template: "hot_lead_welcome", Subject: "Let's talk today"},
				},
				{
					Type: models.ActionCreateTask,
					Task: &models.TaskConfig{
						Title:    "Call hot lead within the hour",
						AssignTo: models.AssignedUserRef,
						Priority: "high", DueInHours: 1,
					},
				},
				{
					Type: models.ActionScheduleCall,
					Call: &models.CallConfig{AssignTo: models.AssignedUserRef, WithinHours: 2},
				},
			},
			Escalations: []models.EscalationRule{
				{TimeoutHours: 4, EscalateTo: "sales-manager", Reason: "hot lead not contacted"},
			},
		},
		{
			ID:          "warm_leads_followup",
			Name:        "Warm Leads Follow-up",
			Description: "Warm leads get a nurture email and a next-day task",
			Priority:    5,
			IsActive:    true,
			Conditions: []models.Condition{
				{
					Type:     models.ConditionQuality,
					Operator: models.OperatorEquals,
					Value:    "warm",
				},
			},
			Actions: []models.Action{
				{
					Type:  models.ActionSendEmail,
					Email: &models.EmailConfig{Template: "warm_lead_followup", Subject: "Saw you looking around"},
				},
				{
					Type:         models.ActionCreateTask,
					DelayMinutes: 1440,
					Task: &models.TaskConfig{
						Title:    "Follow up with warm lead",
						AssignTo: models.AssignedUserRef,
						Priority: "medium", DueInHours: 48,
					},
				},
			},
		},
		{
			ID:          "cold_leads_nurture",
			Name:        "Cold Leads Nurture",
			Description: "Cold leads enter the long-running nurture sequence",
			Priority:    10,
			IsActive:    true,
			Conditions: []models.Condition{
				{
					Type:     models.ConditionQuality,
					Operator: models.OperatorEquals,
					Value:    "cold",
				},
			},
			Actions: []models.Action{
				{
					Type:     models.ActionAddToSequence,
					Sequence: &models.SequenceConfig{SequenceID: "cold_lead_nurture"},
				},
				{
					Type: models.ActionUpdateCRM,
					CRM:  &models.CRMConfig{Fields: map[string]any{"lifecycle_stage": "nurture"}},
				},
			},
		},
	}
}
