package adapters

import (
	"context"
	"fmt"

	"claims_portal_backend/internal/assignment"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// payerCursorsKey holds one field per payer: the last agent that received one
// of its claims.
const payerCursorsKey = "assignment:payer_cursors"

// RedisCursors is a CursorStore shared by every API replica.
type RedisCursors struct {
	client *redis.Client
	key    string
}

var _ assignment.CursorStore = (*RedisCursors)(nil)

// NewRedisCursors creates a cursor store on client.
func NewRedisCursors(client *redis.Client) *RedisCursors {
	return &RedisCursors{client: client, key: payerCursorsKey}
}

// Cursors returns the last agent per payer. Unparseable entries are skipped so
// the ring falls back to its start for that payer.
func (r *RedisCursors) Cursors(ctx context.Context) (map[string]uuid.UUID, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load payer cursors: %w", err)
	}
	out := make(map[string]uuid.UUID, len(raw))
	for payer, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			continue
		}
		out[payer] = id
	}
	return out, nil
}

// Advance records agentID as the last agent for payer.
func (r *RedisCursors) Advance(ctx context.Context, payer string, agentID uuid.UUID) error {
	if err := r.client.HSet(ctx, r.key, payer, agentID.String()).Err(); err != nil {
		return fmt.Errorf("advance payer cursor: %w", err)
	}
	return nil
}
