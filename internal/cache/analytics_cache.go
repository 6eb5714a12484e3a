package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leadscore/internal/model"
)

// AnalyticsCache handles Redis operations for dashboard and scoring analytics
type AnalyticsCache interface {
	GetDashboard(ctx context.Context, owner string, days int) (*model.Dashboard, error)
	SetDashboard(ctx context.Context, owner string, days int, dashboard *model.Dashboard) error

	GetScoringAnalytics(ctx context.Context, owner string) (*model.ScoringAnalytics, error)
	SetScoringAnalytics(ctx context.Context, owner string, analytics *model.ScoringAnalytics) error

	InvalidateOwner(ctx context.Context, owner string) error
}

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new analytics cache with the given TTL
func NewAnalyticsCache(client *redis.Client, ttl time.Duration) AnalyticsCache {
	return &analyticsCache{
		client: client,
		ttl:    ttl,
	}
}

// Key helpers
func (c *analyticsCache) dashboardKey(owner string, days int) string {
	return fmt.Sprintf("owner:%s:analytics:dashboard:%d", owner, days)
}

func (c *analyticsCache) scoringKey(owner string) string {
	return fmt.Sprintf("owner:%s:analytics:scoring", owner)
}

func (c *analyticsCache) GetDashboard(ctx context.Context, owner string, days int) (*model.Dashboard, error) {
	data, err := c.client.Get(ctx, c.dashboardKey(owner, days)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dashboard model.Dashboard
	if err := json.Unmarshal([]byte(data), &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (c *analyticsCache) SetDashboard(ctx context.Context, owner string, days int, dashboard *model.Dashboard) error {
	data, err := json.Marshal(dashboard)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.dashboardKey(owner, days), data, c.ttl).Err()
}

func (c *analyticsCache) GetScoringAnalytics(ctx context.Context, owner string) (*model.ScoringAnalytics, error) {
	data, err := c.client.Get(ctx, c.scoringKey(owner)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var analytics model.ScoringAnalytics
	if err := json.Unmarshal([]byte(data), &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

func (c *analyticsCache) SetScoringAnalytics(ctx context.Context, owner string, analytics *model.ScoringAnalytics) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.scoringKey(owner), data, c.ttl).Err()
}

func (c *analyticsCache) InvalidateOwner(ctx context.Context, owner string) error {
	var cursor uint64
	pattern := fmt.Sprintf("owner:%s:analytics:*", owner)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
