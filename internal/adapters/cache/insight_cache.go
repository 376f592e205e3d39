package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

// Insights outlive their freshness window so a failed refresh can still
// fall back to the previous text.
const insightTTL = 7 * 24 * time.Hour

var (
	_ domain.InsightCache = (*RedisInsightCache)(nil)
	_ domain.InsightCache = (*MemoryInsightCache)(nil)
)

type RedisInsightCache struct {
	client *redis.Client
}

func NewRedisInsightCache(client *redis.Client) *RedisInsightCache {
	return &RedisInsightCache{client: client}
}

func insightKey(userID string) string {
	return fmt.Sprintf("insight:%s", userID)
}

func (c *RedisInsightCache) Get(ctx context.Context, userID string) (*domain.Insight, error) {
	val, err := c.client.Get(ctx, insightKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: get insight: %w", err)
	}

	var insight domain.Insight
	if err := json.Unmarshal(val, &insight); err != nil {
		c.client.Del(ctx, insightKey(userID))
		return nil, nil
	}
	return &insight, nil
}

func (c *RedisInsightCache) Set(ctx context.Context, userID string, insight *domain.Insight) error {
	data, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("cache: encode insight: %w", err)
	}
	if err := c.client.Set(ctx, insightKey(userID), data, insightTTL).Err(); err != nil {
		return fmt.Errorf("cache: set insight: %w", err)
	}
	return nil
}

// MemoryInsightCache is used when Redis is not configured.
type MemoryInsightCache struct {
	mu       sync.RWMutex
	insights map[string]domain.Insight
}

func NewMemoryInsightCache() *MemoryInsightCache {
	return &MemoryInsightCache{insights: make(map[string]domain.Insight)}
}

func (c *MemoryInsightCache) Get(_ context.Context, userID string) (*domain.Insight, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	insight, ok := c.insights[userID]
	if !ok {
		return nil, nil
	}
	return &insight, nil
}

func (c *MemoryInsightCache) Set(_ context.Context, userID string, insight *domain.Insight) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.insights[userID] = *insight
	return nil
}
