// Package persistence provides the storage abstraction for executions,
// enrollments and timers.
package persistence

import (
	"context"
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
)

// ExecutionRepository stores workflow execution records. Records are written
// whole on every state change so a restart resumes from the last persisted
// cursor.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	ByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	Active(ctx context.Context) ([]*models.WorkflowExecution, error)
	ByLead(ctx context.Context, leadID string) ([]*models.WorkflowExecution, error)
}

// EnrollmentRepository stores nurture sequence enrollments.
type EnrollmentRepository interface {
	Save(ctx context.Context, enrollment *models.Enrollment) error
	ByID(ctx context.Context, id string) (*models.Enrollment, error)
	Active(ctx context.Context) ([]*models.Enrollment, error)
}

// TimerRepository stores pending wake-ups for delayed actions and steps.
type TimerRepository interface {
	Save(ctx context.Context, timer *models.Timer) error
	Due(ctx context.Context, now time.Time) ([]*models.Timer, error)
	ByOwner(ctx context.Context, ownerID string) ([]*models.Timer, error)
	Delete(ctx context.Context, id string) error
}

type Persistence interface {
	Executions() ExecutionRepository
	Enrollments() EnrollmentRepository
	Timers() TimerRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
