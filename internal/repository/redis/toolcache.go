package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ToolCatalog/internal/domain"
)

const keyPrefix = "tool:"

// ErrCacheMiss is returned by Get when no entry exists for the id.
var ErrCacheMiss = errors.New("tool cache miss")

// ToolCache stores serialized tools keyed by id with a fixed TTL.
type ToolCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewToolCache(client redis.Cmdable, ttl time.Duration) *ToolCache {
	return &ToolCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached tool or ErrCacheMiss.
func (c *ToolCache) Get(ctx context.Context, id string) (*domain.Tool, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get tool: %w", err)
	}

	var tool domain.Tool
	if err := json.Unmarshal(data, &tool); err != nil {
		return nil, fmt.Errorf("unmarshal tool: %w", err)
	}
	return &tool, nil
}

func (c *ToolCache) Set(ctx context.Context, tool *domain.Tool) error {
	data, err := json.Marshal(tool)
	if err != nil {
		return fmt.Errorf("marshal tool: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+tool.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set tool: %w", err)
	}
	return nil
}

// Invalidate drops the entry for id. Deleting a missing key is not an error.
func (c *ToolCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del tool: %w", err)
	}
	return nil
}
