package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promostack/discount-engine/internal/domain"
)

// DefaultTTL is the cache lifetime for a stack record. Stale reads are
// acceptable: an evaluation always works on the snapshot it loaded.
const DefaultTTL = 5 * time.Minute

// StackCache is a read-through Redis cache for discount stacks keyed by ID.
// All cache failures are logged and swallowed so Redis being down degrades
// to direct database reads instead of failing requests.
type StackCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStackCache creates a stack cache with the given TTL. A ttl of zero
// falls back to DefaultTTL.
func NewStackCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StackCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StackCache{client: client, ttl: ttl, logger: logger}
}

func stackKey(id string) string {
	return fmt.Sprintf("discount:stack:%s", id)
}

// Get returns the cached stack and true on a hit, nil and false otherwise.
func (c *StackCache) Get(ctx context.Context, id string) (*domain.DiscountStack, bool) {
	payload, err := c.client.Get(ctx, stackKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "stack cache read failed",
				slog.String("stack_id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var stack domain.DiscountStack
	if err := json.Unmarshal(payload, &stack); err != nil {
		c.logger.WarnContext(ctx, "stack cache entry is corrupt, dropping",
			slog.String("stack_id", id),
			slog.String("error", err.Error()),
		)
		c.Invalidate(ctx, id)
		return nil, false
	}

	return &stack, true
}

// Set stores the stack under its ID for the configured TTL.
func (c *StackCache) Set(ctx context.Context, stack *domain.DiscountStack) {
	payload, err := json.Marshal(stack)
	if err != nil {
		c.logger.WarnContext(ctx, "stack cache marshal failed",
			slog.String("stack_id", stack.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, stackKey(stack.ID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "stack cache write failed",
			slog.String("stack_id", stack.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate removes the cached stack, if any.
func (c *StackCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, stackKey(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "stack cache invalidation failed",
			slog.String("stack_id", id),
			slog.String("error", err.Error()),
		)
	}
}
