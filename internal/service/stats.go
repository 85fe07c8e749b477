package service

import (
	"context"
	"fmt"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
)

// StatsService reports platform-wide counts.
type StatsService struct {
	tools   repository.ToolRepository
	reviews repository.ReviewRepository
}

func NewStatsService(tools repository.ToolRepository, reviews repository.ReviewRepository) *StatsService {
	return &StatsService{tools: tools, reviews: reviews}
}

func (s *StatsService) Get(ctx context.Context) (*domain.Stats, error) {
	tools, err := s.tools.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tools: %w", err)
	}

	byStatus, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	stats := &domain.Stats{
		TotalTools:      tools,
		PendingReviews:  byStatus[domain.ReviewPending],
		ApprovedReviews: byStatus[domain.ReviewApproved],
		RejectedReviews: byStatus[domain.ReviewRejected],
	}
	for _, n := range byStatus {
		stats.TotalReviews += n
	}
	return stats, nil
}
