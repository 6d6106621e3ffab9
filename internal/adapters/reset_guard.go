package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetGuardPrefix = "capacity:reset:"

// ResetGuard makes sure only one scheduler instance runs the daily reset.
type ResetGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetGuard creates a guard whose claims expire after ttl.
func NewResetGuard(client *redis.Client, ttl time.Duration) *ResetGuard {
	if ttl <= 0 {
		ttl = 36 * time.Hour
	}
	return &ResetGuard{client: client, ttl: ttl}
}

// Acquire claims the reset for day (YYYY-MM-DD). It returns false when another
// instance already claimed it.
func (g *ResetGuard) Acquire(ctx context.Context, day string) (bool, error) {
	ok, err := g.client.SetNX(ctx, resetGuardPrefix+day, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire reset guard: %w", err)
	}
	return ok, nil
}

// Release drops the claim for day so a failed reset can be retried.
func (g *ResetGuard) Release(ctx context.Context, day string) error {
	if err := g.client.Del(ctx, resetGuardPrefix+day).Err(); err != nil {
		return fmt.Errorf("release reset guard: %w", err)
	}
	return nil
}
