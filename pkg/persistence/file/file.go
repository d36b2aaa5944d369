// Package file provides file-based persistence. Each record is one JSON file
// under the root directory, which keeps local development and tests free of
// external dependencies.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gcamillo/leadflow/pkg/persistence"
)

type Persistence struct {
	root        string
	executions  *ExecutionRepository
	enrollments *EnrollmentRepository
	timers      *TimerRepository
}

func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	if cleanRoot == "" {
		return nil, fmt.Errorf("persistence root path is empty")
	}

	if err := os.MkdirAll(cleanRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persistence root %s: %w", cleanRoot, err)
	}

	return &Persistence{
		root:        cleanRoot,
		executions:  &ExecutionRepository{dir: filepath.Join(cleanRoot, "executions")},
		enrollments: &EnrollmentRepository{dir: filepath.Join(cleanRoot, "enrollments")},
		timers:      &TimerRepository{dir: filepath.Join(cleanRoot, "timers")},
	}, nil
}

func (p *Persistence) Executions() persistence.ExecutionRepository   { return p.executions }
func (p *Persistence) Enrollments() persistence.EnrollmentRepository { return p.enrollments }
func (p *Persistence) Timers() persistence.TimerRepository           { return p.timers }

func (p *Persistence) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return fmt.Errorf("persistence root %s is not writable: %w", p.root, err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func writeRecord(dir, id string, record any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", id, err)
	}

	path := filepath.Join(dir, id+".json")

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func readRecord(dir, id string, record any) (bool, error) {
	path := filepath.Join(dir, id+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, record); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return true, nil
}

func listRecords(dir string, each func(data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		if err := each(data); err != nil {
			return err
		}
	}

	return nil
}

func deleteRecord(dir, id string) (bool, error) {
	path := filepath.Join(dir, id+".json")

	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return true, nil
}
