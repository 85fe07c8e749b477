package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/event"
	"github.com/utafrali/ToolCatalog/internal/repository"
)

// RatingAggregator keeps a tool's average rating and review count equal to
// what its approved reviews say. It always recomputes from scratch.
type RatingAggregator struct {
	uow      repository.UnitOfWork
	cache    ToolCache
	producer *event.Producer
	metrics  *Metrics
	logger   *slog.Logger
}

func NewRatingAggregator(
	uow repository.UnitOfWork,
	cache ToolCache,
	producer *event.Producer,
	metrics *Metrics,
	logger *slog.Logger,
) *RatingAggregator {
	if cache == nil {
		cache = NoopToolCache{}
	}
	return &RatingAggregator{
		uow:      uow,
		cache:    cache,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Recompute rewrites the aggregate of toolID under the tool's lock.
func (a *RatingAggregator) Recompute(ctx context.Context, toolID string) (domain.RatingAggregate, error) {
	var agg domain.RatingAggregate
	err := a.uow.WithToolLock(ctx, toolID, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		agg, err = a.recomputeIn(ctx, repos, toolID)
		return err
	})
	if err != nil {
		return domain.RatingAggregate{}, err
	}

	a.committed(ctx, toolID, agg)
	return agg, nil
}

// recomputeIn does the work of Recompute inside a unit of work the caller
// already holds.
func (a *RatingAggregator) recomputeIn(ctx context.Context, repos repository.TxRepositories, toolID string) (domain.RatingAggregate, error) {
	start := time.Now()

	ratings, err := repos.Reviews.ApprovedRatings(ctx, toolID)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("read approved ratings: %w", err)
	}

	agg := domain.ComputeRating(ratings)
	if err := repos.Tools.SetRating(ctx, toolID, agg); err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("write tool rating: %w", err)
	}

	a.metrics.ratingRecomputed(float64(time.Since(start).Microseconds()) / 1000)
	return agg, nil
}

// committed runs the side effects that must wait for the aggregate to be durable.
func (a *RatingAggregator) committed(ctx context.Context, toolID string, agg domain.RatingAggregate) {
	if err := a.cache.Invalidate(ctx, toolID); err != nil {
		a.logger.WarnContext(ctx, "tool cache invalidation failed",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
	}

	if err := a.producer.PublishToolRatingUpdated(ctx, toolID, agg); err != nil {
		a.logger.ErrorContext(ctx, "failed to publish tool.rating_updated event",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
	}

	a.logger.InfoContext(ctx, "tool rating recomputed",
		slog.String("tool_id", toolID),
		slog.Float64("average_rating", agg.AverageRating),
		slog.Int("review_count", agg.ReviewCount),
	)
}
