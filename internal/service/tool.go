package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
	rediscache "github.com/utafrali/ToolCatalog/internal/repository/redis"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
	"github.com/utafrali/ToolCatalog/pkg/pagination"
)

// ToolService manages catalog entries. Rating fields are never taken from
// input; they only change through the RatingAggregator.
type ToolService struct {
	tools  repository.ToolRepository
	cache  ToolCache
	logger *slog.Logger
}

func NewToolService(tools repository.ToolRepository, cache ToolCache, logger *slog.Logger) *ToolService {
	if cache == nil {
		cache = NoopToolCache{}
	}
	return &ToolService{
		tools:  tools,
		cache:  cache,
		logger: logger,
	}
}

// ToolInput holds the editable fields of a tool.
type ToolInput struct {
	Name         string
	UseCase      string
	Category     string
	PricingModel string
}

func (in ToolInput) details() domain.ToolDetails {
	return domain.ToolDetails{
		Name:         in.Name,
		UseCase:      in.UseCase,
		Category:     in.Category,
		PricingModel: in.PricingModel,
	}
}

// ListToolsInput holds the filters and page of a tool listing.
type ListToolsInput struct {
	Category     string
	PricingModel string
	MinRating    *float64
	Page         pagination.Params
}

func (s *ToolService) Create(ctx context.Context, input ToolInput) (*domain.Tool, error) {
	tool, err := domain.NewTool(input.details())
	if err != nil {
		return nil, err
	}

	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}

	s.logger.InfoContext(ctx, "tool created",
		slog.String("tool_id", tool.ID),
		slog.String("name", tool.Name),
	)
	return tool, nil
}

// Get serves from the cache when it can. Cache failures only cost a store read.
func (s *ToolService) Get(ctx context.Context, id string) (*domain.Tool, error) {
	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, rediscache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "tool cache read failed",
			slog.String("tool_id", id),
			slog.String("error", err.Error()),
		)
	}

	tool, err := s.tools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, tool); err != nil {
		s.logger.WarnContext(ctx, "tool cache write failed",
			slog.String("tool_id", id),
			slog.String("error", err.Error()),
		)
	}
	return tool, nil
}

func (s *ToolService) List(ctx context.Context, input ListToolsInput) (pagination.Result[domain.Tool], error) {
	if input.Category != "" && !domain.IsValidCategory(input.Category) {
		return pagination.Result[domain.Tool]{}, apperrors.InvalidInput("unknown category: " + input.Category)
	}
	if input.PricingModel != "" && !domain.IsValidPricingModel(input.PricingModel) {
		return pagination.Result[domain.Tool]{}, apperrors.InvalidInput("unknown pricing model: " + input.PricingModel)
	}
	if r := input.MinRating; r != nil && (*r < 0 || *r > domain.MaxRating) {
		return pagination.Result[domain.Tool]{}, apperrors.InvalidInput("min_rating must be between 0 and 5")
	}

	if input.Page.Page < 1 {
		input.Page.Page = 1
	}
	if input.Page.PerPage < 1 {
		input.Page.PerPage = pagination.DefaultPerPage
	}

	tools, total, err := s.tools.List(ctx, repository.ToolFilter{
		Category:     input.Category,
		PricingModel: input.PricingModel,
		MinRating:    input.MinRating,
		Limit:        input.Page.PerPage,
		Offset:       input.Page.Offset(),
	})
	if err != nil {
		return pagination.Result[domain.Tool]{}, fmt.Errorf("list tools: %w", err)
	}
	return pagination.NewResult(tools, total, input.Page), nil
}

// Update replaces the editable fields of a tool.
func (s *ToolService) Update(ctx context.Context, id string, input ToolInput) (*domain.Tool, error) {
	tool, err := s.tools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tool.ApplyDetails(input.details()); err != nil {
		return nil, err
	}

	if err := s.tools.Update(ctx, tool); err != nil {
		return nil, fmt.Errorf("update tool: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "tool updated", slog.String("tool_id", id))
	return tool, nil
}

// Delete removes a tool together with all of its reviews.
func (s *ToolService) Delete(ctx context.Context, id string) error {
	if err := s.tools.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "tool deleted", slog.String("tool_id", id))
	return nil
}

func (s *ToolService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "tool cache invalidation failed",
			slog.String("tool_id", id),
			slog.String("error", err.Error()),
		)
	}
}
