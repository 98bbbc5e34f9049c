package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/pkg/utils"
)

const thresholdKey = "thresholds:effective"

// OverrideLoader returns the out-of-band overrides of the built-in table.
type OverrideLoader func(ctx context.Context) (allocation.ThresholdTable, error)

// ThresholdCache holds the effective threshold table for a TTL.
// The table is the built-in base merged with loaded overrides and is
// validated on every load.
type ThresholdCache struct {
	mu       sync.Mutex
	base     allocation.ThresholdTable
	load     OverrideLoader
	clock    Clock
	ttl      time.Duration
	shared   SharedStore
	table    allocation.ThresholdTable
	loadedAt time.Time
}

// Option configures a ThresholdCache.
type Option func(*ThresholdCache)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(tc *ThresholdCache) { tc.clock = c }
}

// WithSharedStore adds a second-level cache, e.g. redis.
func WithSharedStore(s SharedStore) Option {
	return func(tc *ThresholdCache) { tc.shared = s }
}

// NewThresholdCache creates a cache over base. A nil loader means no overrides.
func NewThresholdCache(base allocation.ThresholdTable, load OverrideLoader, ttl time.Duration, opts ...Option) *ThresholdCache {
	if load == nil {
		load = func(context.Context) (allocation.ThresholdTable, error) { return nil, nil }
	}
	tc := &ThresholdCache{base: base, load: load, clock: SystemClock{}, ttl: ttl}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// Get returns the effective table, reloading once the TTL has passed.
// A failed reload serves the previous table if there is one.
func (c *ThresholdCache) Get(ctx context.Context) (allocation.ThresholdTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.table != nil && now.Sub(c.loadedAt) < c.ttl {
		return c.table, nil
	}

	if table, ok := c.fromShared(ctx); ok {
		c.table, c.loadedAt = table, now
		return table, nil
	}

	table, err := c.build(ctx)
	if err != nil {
		if c.table != nil {
			utils.LogWarn("Threshold reload failed, serving previous table", map[string]interface{}{"error": err.Error()})
			return c.table, nil
		}
		return nil, err
	}
	c.table, c.loadedAt = table, now
	c.toShared(ctx, table)
	return table, nil
}

// Invalidate drops the cached table locally and in the shared store.
func (c *ThresholdCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
	if c.shared != nil {
		if err := c.shared.Del(ctx, thresholdKey); err != nil {
			utils.LogWarn("Failed to drop shared threshold cache", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Base returns the built-in table the overrides are merged onto.
func (c *ThresholdCache) Base() allocation.ThresholdTable {
	return c.base
}

func (c *ThresholdCache) build(ctx context.Context) (allocation.ThresholdTable, error) {
	overrides, err := c.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading threshold overrides: %w", err)
	}
	table := c.base.Merge(overrides)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (c *ThresholdCache) fromShared(ctx context.Context) (allocation.ThresholdTable, bool) {
	if c.shared == nil {
		return nil, false
	}
	raw, err := c.shared.Get(ctx, thresholdKey)
	if err != nil {
		if err != ErrCacheMiss {
			utils.LogWarn("Shared threshold cache unavailable", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var table allocation.ThresholdTable
	if err := json.Unmarshal(raw, &table); err != nil || table.Validate() != nil {
		utils.LogWarn("Ignoring malformed shared threshold table")
		return nil, false
	}
	return table, true
}

func (c *ThresholdCache) toShared(ctx context.Context, table allocation.ThresholdTable) {
	if c.shared == nil {
		return
	}
	raw, err := json.Marshal(table)
	if err != nil {
		utils.LogError(err, "Failed to encode threshold table")
		return
	}
	if err := c.shared.Set(ctx, thresholdKey, raw, c.ttl); err != nil {
		utils.LogWarn("Failed to write shared threshold cache", map[string]interface{}{"error": err.Error()})
	}
}
