package file

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
)

type ExecutionRepository struct {
	mu  sync.RWMutex
	dir string
}

func (r *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeRecord(r.dir, execution.ID, execution)
}

func (r *ExecutionRepository) ByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var execution models.WorkflowExecution

	found, err := readRecord(r.dir, id, &execution)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrExecutionNotFound
	}

	return &execution, nil
}

func (r *ExecutionRepository) Active(_ context.Context) ([]*models.WorkflowExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*models.WorkflowExecution

	err := listRecords(r.dir, func(data []byte) error {
		var execution models.WorkflowExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return err
		}

		if !execution.IsTerminal() {
			active = append(active, &execution)
		}

		return nil
	})

	return active, err
}

func (r *ExecutionRepository) ByLead(_ context.Context, leadID string) ([]*models.WorkflowExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var executions []*models.WorkflowExecution

	err := listRecords(r.dir, func(data []byte) error {
		var execution models.WorkflowExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return err
		}

		if execution.LeadID == leadID {
			executions = append(executions, &execution)
		}

		return nil
	})

	return executions, err
}

type EnrollmentRepository struct {
	mu  sync.RWMutex
	dir string
}

func (r *EnrollmentRepository) Save(_ context.Context, enrollment *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeRecord(r.dir, enrollment.ID, enrollment)
}

func (r *EnrollmentRepository) ByID(_ context.Context, id string) (*models.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enrollment models.Enrollment

	found, err := readRecord(r.dir, id, &enrollment)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrEnrollmentNotFound
	}

	return &enrollment, nil
}

func (r *EnrollmentRepository) Active(_ context.Context) ([]*models.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*models.Enrollment

	err := listRecords(r.dir, func(data []byte) error {
		var enrollment models.Enrollment
		if err := json.Unmarshal(data, &enrollment); err != nil {
			return err
		}

		if !enrollment.IsTerminal() {
			active = append(active, &enrollment)
		}

		return nil
	})

	return active, err
}

type TimerRepository struct {
	mu  sync.RWMutex
	dir string
}

func (r *TimerRepository) Save(_ context.Context, timer *models.Timer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeRecord(r.dir, timer.ID, timer)
}

func (r *TimerRepository) Due(_ context.Context, now time.Time) ([]*models.Timer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*models.Timer

	err := listRecords(r.dir, func(data []byte) error {
		var timer models.Timer
		if err := json.Unmarshal(data, &timer); err != nil {
			return err
		}

		if timer.IsDue(now) {
			due = append(due, &timer)
		}

		return nil
	})

	return due, err
}

func (r *TimerRepository) ByOwner(_ context.Context, ownerID string) ([]*models.Timer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var timers []*models.Timer

	err := listRecords(r.dir, func(data []byte) error {
		var timer models.Timer
		if err := json.Unmarshal(data, &timer); err != nil {
			return err
		}

		if timer.OwnerID == ownerID {
			timers = append(timers, &timer)
		}

		return nil
	})

	return timers, err
}

func (r *TimerRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	found, err := deleteRecord(r.dir, id)
	if err != nil {
		return err
	}

	if !found {
		return persistence.ErrTimerNotFound
	}

	return nil
}
