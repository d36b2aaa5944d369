package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gcamillo/leadflow/pkg/models"
	"github.com/gcamillo/leadflow/pkg/persistence"
)

type ExecutionRepository struct {
	db *sql.DB
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	payload, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO executions (id, lead_id, status, payload, started_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET status = $3, payload = $4`,
		execution.ID, execution.LeadID, execution.Status, payload, execution.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	row := r.db.QueryRowContext(ctx, `SELECT payload FROM executions WHERE id = $1`, id)

	return scanExecution(row)
}

func (r *ExecutionRepository) Active(ctx context.Context) ([]*models.WorkflowExecution, error) {
	return r.query(ctx, `SELECT payload FROM executions WHERE status IN ('pending', 'in_progress')`)
}

func (r *ExecutionRepository) ByLead(ctx context.Context, leadID string) ([]*models.WorkflowExecution, error) {
	return r.query(ctx, `SELECT payload FROM executions WHERE lead_id = $1`, leadID)
}

func (r *ExecutionRepository) query(ctx context.Context, query string, args ...any) ([]*models.WorkflowExecution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var executions []*models.WorkflowExecution

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}

		var execution models.WorkflowExecution
		if err := json.Unmarshal(payload, &execution); err != nil {
			return nil, fmt.Errorf("failed to decode execution payload: %w", err)
		}

		executions = append(executions, &execution)
	}

	return executions, rows.Err()
}

func scanExecution(row *sql.Row) (*models.WorkflowExecution, error) {
	var payload []byte

	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	var execution models.WorkflowExecution
	if err := json.Unmarshal(payload, &execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution payload: %w", err)
	}

	return &execution, nil
}

type EnrollmentRepository struct {
	db *sql.DB
}

func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *models.Enrollment) error {
	payload, err := json.Marshal(enrollment)
	if err != nil {
		return fmt.Errorf("failed to marshal enrollment %s: %w", enrollment.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, lead_id, status, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET status = $3, payload = $4`,
		enrollment.ID, enrollment.LeadID, enrollment.Status, payload)
	if err != nil {
		return fmt.Errorf("failed to save enrollment %s: %w", enrollment.ID, err)
	}

	return nil
}

func (r *EnrollmentRepository) ByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var payload []byte

	err := r.db.QueryRowContext(ctx, `SELECT payload FROM enrollments WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrEnrollmentNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan enrollment: %w", err)
	}

	var enrollment models.Enrollment
	if err := json.Unmarshal(payload, &enrollment); err != nil {
		return nil, fmt.Errorf("failed to decode enrollment payload: %w", err)
	}

	return &enrollment, nil
}

func (r *EnrollmentRepository) Active(ctx context.Context) ([]*models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM enrollments WHERE status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}

		var enrollment models.Enrollment
		if err := json.Unmarshal(payload, &enrollment); err != nil {
			return nil, fmt.Errorf("failed to decode enrollment payload: %w", err)
		}

		enrollments = append(enrollments, &enrollment)
	}

	return enrollments, rows.Err()
}

type TimerRepository struct {
	db *sql.DB
}

func (r *TimerRepository) Save(ctx context.Context, timer *models.Timer) error {
	payload, err := json.Marshal(timer)
	if err != nil {
		return fmt.Errorf("failed to marshal timer %s: %w", timer.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO timers (id, kind, owner_id, fire_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET fire_at = $4, payload = $5`,
		timer.ID, timer.Kind, timer.OwnerID, timer.FireAt, payload)
	if err != nil {
		return fmt.Errorf("failed to save timer %s: %w", timer.ID, err)
	}

	return nil
}

func (r *TimerRepository) Due(ctx context.Context, now time.Time) ([]*models.Timer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM timers WHERE fire_at <= $1 ORDER BY fire_at`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due timers: %w", err)
	}
	defer rows.Close()

	var timers []*models.Timer

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan timer row: %w", err)
		}

		var timer models.Timer
		if err := json.Unmarshal(payload, &timer); err != nil {
			return nil, fmt.Errorf("failed to decode timer payload: %w", err)
		}

		timers = append(timers, &timer)
	}

	return timers, rows.Err()
}

func (r *TimerRepository) ByOwner(ctx context.Context, ownerID string) ([]*models.Timer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM timers WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timers for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var timers []*models.Timer

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan timer row: %w", err)
		}

		var timer models.Timer
		if err := json.Unmarshal(payload, &timer); err != nil {
			return nil, fmt.Errorf("failed to decode timer payload: %w", err)
		}

		timers = append(timers, &timer)
	}

	return timers, rows.Err()
}

func (r *TimerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete timer %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrTimerNotFound
	}

	return nil
}
