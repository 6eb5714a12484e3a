package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leadscore/internal/scoring"
)

// ScoreCache handles Redis operations for per-lead scoring artifacts
type ScoreCache interface {
	GetExplanation(ctx context.Context, leadID string) (*scoring.Explanation, error)
	SetExplanation(ctx context.Context, leadID string, exp *scoring.Explanation) error
	Invalidate(ctx context.Context, leadID string) error
}

type scoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache creates a new score cache
func NewScoreCache(client *redis.Client) ScoreCache {
	return &scoreCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *scoreCache) explanationKey(leadID string) string {
	return fmt.Sprintf("lead:%s:explanation", leadID)
}

func (c *scoreCache) GetExplanation(ctx context.Context, leadID string) (*scoring.Explanation, error) {
	data, err := c.client.Get(ctx, c.explanationKey(leadID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var exp scoring.Explanation
	if err := json.Unmarshal([]byte(data), &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (c *scoreCache) SetExplanation(ctx context.Context, leadID string, exp *scoring.Explanation) error {
	data, err := json.Marshal(exp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.explanationKey(leadID), data, c.ttl).Err()
}

func (c *scoreCache) Invalidate(ctx context.Context, leadID string) error {
	return c.client.Del(ctx, c.explanationKey(leadID)).Err()
}
