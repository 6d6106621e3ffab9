package adapters

import (
	"context"
	"errors"
	"fmt"

	rulesservice "claims_portal_backend/internal/rules/service"

	"github.com/redis/go-redis/v9"
)

const ruleGenerationKey = "assignment:rules_generation"

// RedisRuleGeneration shares the rule change counter across API replicas.
type RedisRuleGeneration struct {
	client *redis.Client
	key    string
}

var _ rulesservice.Generation = (*RedisRuleGeneration)(nil)

// NewRedisRuleGeneration creates a rule generation counter on client.
func NewRedisRuleGeneration(client *redis.Client) *RedisRuleGeneration {
	return &RedisRuleGeneration{client: client, key: ruleGenerationKey}
}

// Current returns the counter; a missing key is generation zero.
func (g *RedisRuleGeneration) Current(ctx context.Context) (uint64, error) {
	n, err := g.client.Get(ctx, g.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rule generation: %w", err)
	}
	return n, nil
}

// Bump increments the counter.
func (g *RedisRuleGeneration) Bump(ctx context.Context) error {
	if err := g.client.Incr(ctx, g.key).Err(); err != nil {
		return fmt.Errorf("bump rule generation: %w", err)
	}
	return nil
}
