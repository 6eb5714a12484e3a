package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// HotLeadsCache handles Redis ZSET operations for the per-owner hot leads board
type HotLeadsCache interface {
	UpdateScore(ctx context.Context, owner, leadID string, score int) error
	Remove(ctx context.Context, owner, leadID string) error
	GetTop(ctx context.Context, owner string, limit int) ([]HotLeadEntry, error)
	GetRank(ctx context.Context, owner, leadID string) (int64, error)
}

// HotLeadEntry represents a single hot leads entry
type HotLeadEntry struct {
	LeadID string `json:"leadId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

type hotLeadsCache struct {
	client *redis.Client
}

// NewHotLeadsCache creates a new hot leads cache
func NewHotLeadsCache(client *redis.Client) HotLeadsCache {
	return &hotLeadsCache{
		client: client,
	}
}

func (c *hotLeadsCache) key(owner string) string {
	return fmt.Sprintf("owner:%s:hot", owner)
}

func (c *hotLeadsCache) UpdateScore(ctx context.Context, owner, leadID string, score int) error {
	return c.client.ZAdd(ctx, c.key(owner), redis.Z{
		Score:  float64(score),
		Member: leadID,
	}).Err()
}

func (c *hotLeadsCache) Remove(ctx context.Context, owner, leadID string) error {
	return c.client.ZRem(ctx, c.key(owner), leadID).Err()
}

func (c *hotLeadsCache) GetTop(ctx context.Context, owner string, limit int) ([]HotLeadEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(owner), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]HotLeadEntry, len(results))
	for i, z := range results {
		entries[i] = HotLeadEntry{
			LeadID: z.Member.(string),
			Score:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *hotLeadsCache) GetRank(ctx context.Context, owner, leadID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(owner), leadID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
