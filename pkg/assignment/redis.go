package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "leadflow:assignment:"

// RedisTable stores lead ownership in Redis so multiple engine instances
// share one register. Redis SET gives the same last-write-wins semantics as
// the in-memory table.
type RedisTable struct {
	client *redis.Client
}

func NewRedisTable(client *redis.Client) *RedisTable {
	return &RedisTable{client: client}
}

func (t *RedisTable) Assign(ctx context.Context, leadID, userID string) error {
	if err := t.client.Set(ctx, keyPrefix+leadID, userID, 0).Err(); err != nil {
		return fmt.Errorf("failed to store assignment for lead %s: %w", leadID, err)
	}

	return nil
}

func (t *RedisTable) Lookup(ctx context.Context, leadID string) (string, bool, error) {
	userID, err := t.client.Get(ctx, keyPrefix+leadID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to look up assignment for lead %s: %w", leadID, err)
	}

	return userID, true, nil
}
