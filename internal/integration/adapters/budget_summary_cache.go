// Package adapters provides integration-layer implementations of
// application service interfaces.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
)

// budgetSummaryCache is a Redis-backed adapter.BudgetSummaryCache.
// Entries carry a TTL as a backstop; correctness comes from the
// write-path invalidation, not from expiry.
type budgetSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBudgetSummaryCache creates a Redis budget summary cache.
func NewBudgetSummaryCache(client *redis.Client, ttl time.Duration) adapter.BudgetSummaryCache {
	return &budgetSummaryCache{
		client: client,
		ttl:    ttl,
	}
}

// summaryKey builds the cache key for one budget year.
func summaryKey(clientID uuid.UUID, year int) string {
	return fmt.Sprintf("budget-summary:%s:%d", clientID, year)
}

// Get retrieves a cached summary; a miss is not an error.
func (c *budgetSummaryCache) Get(ctx context.Context, clientID uuid.UUID, year int) (*entity.BudgetSummary, bool, error) {
	payload, err := c.client.Get(ctx, summaryKey(clientID, year)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read summary cache: %w", err)
	}

	var summary entity.BudgetSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		// A corrupt entry behaves like a miss; the store is the truth.
		return nil, false, fmt.Errorf("failed to decode cached summary: %w", err)
	}
	return &summary, true, nil
}

// Set stores a summary under the backstop TTL.
func (c *budgetSummaryCache) Set(ctx context.Context, clientID uuid.UUID, year int, summary *entity.BudgetSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(clientID, year), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write summary cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary for a budget year.
func (c *budgetSummaryCache) Invalidate(ctx context.Context, clientID uuid.UUID, year int) error {
	if err := c.client.Del(ctx, summaryKey(clientID, year)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary cache: %w", err)
	}
	return nil
}
