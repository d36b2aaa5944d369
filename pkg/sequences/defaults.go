package sequences

import "github.com/gcamillo/leadflow/pkg/models"

func strptr(s string) *string { return &s }

// DefaultSequences is the sequence set the engine ships with.
func DefaultSequences() []*models.NurtureSequence {
	return []*models.NurtureSequence{
		{
			ID:          "cold_lead_nurture",
			Name:        "Cold Lead Nurture",
			Description: "Six-touch nurture spanning roughly four weeks",
			IsActive:    true,
			TargetAudience: []models.Condition{
				{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "cold"},
			},
			Steps: []models.NurtureStep{
				{
					ID: "step-1", Name: "Welcome email", Type: models.StepEmail, DelayHours: 1,
					Content:    &models.StepContent{Template: "nurture_welcome", Subject: "Thanks for stopping by"},
					NextStepID: strptr("step-2"),
				},
				{
					ID: "step-2", Name: "Case study", Type: models.StepEmail, DelayHours: 72,
					Content:    &models.StepContent{Template: "nurture_case_study", Subject: "How teams like yours ship faster"},
					NextStepID: strptr("step-3"),
				},
				{
					ID: "step-3", Name: "Engagement gate", Type: models.StepCondition, DelayHours: 168,
					Conditions: []models.Condition{
						{Type: models.ConditionEngagement, Field: "email_opens", Operator: models.OperatorGreaterThan, Value: 0},
					},
					NextStepID:        strptr("step-4"),
					AlternativeStepID: strptr("step-5"),
				},
				{
					ID: "step-4", Name: "Product deep dive", Type: models.StepEmail, DelayHours: 168,
					Content:    &models.StepContent{Template: "nurture_deep_dive", Subject: "A closer look"},
					NextStepID: strptr("step-5"),
				},
				{
					ID: "step-5", Name: "Check-in SMS", Type: models.StepSMS, DelayHours: 168,
					Content:    &models.StepContent{Message: "Still exploring? Reply and we'll help."},
					NextStepID: strptr("step-6"),
				},
				{
					ID: "step-6", Name: "Breakup email", Type: models.StepEmail, DelayHours: 168,
					Content: &models.StepContent{Template: "nurture_breakup", Subject: "Closing the loop"},
				},
			},
		},
		{
			ID:          "warm_lead_checkin",
			Name:        "Warm Lead Check-in",
			Description: "Short two-touch follow-up for warm leads",
			IsActive:    true,
			TargetAudience: []models.Condition{
				{Type: models.ConditionQuality, Operator: models.OperatorEquals, Value: "warm"},
			},
			Steps: []models.NurtureStep{
				{
					ID: "checkin-1", Name: "Check-in email", Type: models.StepEmail, DelayHours: 24,
					Content:    &models.StepContent{Template: "warm_checkin", Subject: "Anything we can answer?"},
					NextStepID: strptr("checkin-2"),
				},
				{
					ID: "checkin-2", Name: "Owner task", Type: models.StepTask, DelayHours: 72,
					Content: &models.StepContent{Title: "Personal follow-up with warm lead"},
				},
			},
		},
	}
}
