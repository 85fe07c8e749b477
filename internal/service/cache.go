package service

import (
	"context"

	"github.com/utafrali/ToolCatalog/internal/domain"
	rediscache "github.com/utafrali/ToolCatalog/internal/repository/redis"
)

// ToolCache is a read-through cache for single tools.
type ToolCache interface {
	Get(ctx context.Context, id string) (*domain.Tool, error)
	Set(ctx context.Context, tool *domain.Tool) error
	Invalidate(ctx context.Context, id string) error
}

var _ ToolCache = (*rediscache.ToolCache)(nil)

// NoopToolCache never holds anything.
type NoopToolCache struct{}

func (NoopToolCache) Get(context.Context, string) (*domain.Tool, error) {
	return nil, rediscache.ErrCacheMiss
}

func (NoopToolCache) Set(context.Context, *domain.Tool) error { return nil }

func (NoopToolCache) Invalidate(context.Context, string) error { return nil }
