package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gcamillo/leadflow/pkg/assignment"
)

// NewAssignmentTable returns the Redis-backed table when a URL is given,
// otherwise the in-process one.
func NewAssignmentTable(redisURL string) (assignment.Table, error) {
	if redisURL == "" {
		return assignment.NewMemoryTable(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return assignment.NewRedisTable(redis.NewClient(opts)), nil
}
