package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedStore records tool-call IDs that were already handled. The voice
// platform retries webhooks it thinks failed; a replayed book or cancel
// call must act at most once.
type ProcessedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProcessedStore creates a store with the given replay window.
func NewProcessedStore(client *redis.Client, ttl time.Duration) *ProcessedStore {
	if client == nil {
		panic("events: redis client required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProcessedStore{client: client, ttl: ttl}
}

// MarkProcessed claims an ID, returning false when it was already claimed.
// The claim expires after the store's TTL; the platform only replays within
// seconds, so a bounded window is enough.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, provider, id string) (bool, error) {
	if id == "" {
		// Nothing to correlate on; let the call through.
		return true, nil
	}
	key := fmt.Sprintf("processed:%s:%s", provider, id)
	ok, err := s.client.SetNX(ctx, key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ok, nil
}
