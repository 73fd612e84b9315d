package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"paperdeck/internal/model"
)

const (
	summaryListKey       = "paperdeck:summary_pages"
	summaryGenerationKey = "paperdeck:summary_pages:generation"
)

// setIfCurrentScript stores the listing only while the generation is still
// the one the caller read before querying the database.
var setIfCurrentScript = redisv9.NewScript(`
local gen = redis.call("GET", KEYS[1]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// SummaryCache holds the rendered summary listing so repeated page loads do
// not hit the database.
type SummaryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redisv9.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// GetList returns the cached listing. On a miss it returns the current
// generation, which must be passed back to SetList.
func (c *SummaryCache) GetList(ctx context.Context) ([]model.SummaryPage, int64, bool, error) {
	vals, err := c.client.MGet(ctx, summaryListKey, summaryGenerationKey).Result()
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get summary list failed: %w", err)
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, false, fmt.Errorf("parse summary list generation failed: %w", err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, false, nil
	}
	var pages []model.SummaryPage
	if err := json.Unmarshal([]byte(raw), &pages); err != nil {
		return nil, generation, false, fmt.Errorf("unmarshal cached summary list failed: %w", err)
	}
	return pages, generation, true, nil
}

// SetList caches pages unless Invalidate ran after generation was read.
func (c *SummaryCache) SetList(ctx context.Context, pages []model.SummaryPage, generation int64) error {
	payload, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("marshal summary list cache failed: %w", err)
	}
	keys := []string{summaryGenerationKey, summaryListKey}
	err = setIfCurrentScript.Run(ctx, c.client, keys, strconv.FormatInt(generation, 10), payload, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set summary list failed: %w", err)
	}
	return nil
}

func (c *SummaryCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Incr(ctx, summaryGenerationKey)
		pipe.Del(ctx, summaryListKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate summary list failed: %w", err)
	}
	return nil
}
