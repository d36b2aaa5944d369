// Package postgresql provides PostgreSQL persistence for executions,
// enrollments and timers.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/gcamillo/leadflow/pkg/persistence"
)

type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	executions  *ExecutionRepository
	enrollments *EnrollmentRepository
	timers      *TimerRepository
}

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Persistence{
		db:          database,
		logger:      logger,
		executions:  &ExecutionRepository{db: database},
		enrollments: &EnrollmentRepository{db: database},
		timers:      &TimerRepository{db: database},
	}

	if err := p.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return p, nil
}

func (p *Persistence) migrate(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Running database migrations")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			lead_id TEXT NOT NULL,
			status TEXT NOT NULL,
			payload JSONB NOT NULL,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_lead ON executions (lead_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_status ON executions (status)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			id TEXT PRIMARY KEY,
			lead_id TEXT NOT NULL,
			status TEXT NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_status ON enrollments (status)`,
		`CREATE TABLE IF NOT EXISTS timers (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			fire_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timers_fire_at ON timers (fire_at)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement failed: %w", err)
		}
	}

	return nil
}

func (p *Persistence) Executions() persistence.ExecutionRepository   { return p.executions }
func (p *Persistence) Enrollments() persistence.EnrollmentRepository { return p.enrollments }
func (p *Persistence) Timers() persistence.TimerRepository           { return p.timers }

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
