package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/event"
	"github.com/utafrali/ToolCatalog/internal/repository"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

// ReviewService owns the review lifecycle: submission, moderation and the
// visibility of reviews to non-admins.
type ReviewService struct {
	reviews    repository.ReviewRepository
	tools      repository.ToolRepository
	uow        repository.UnitOfWork
	access     *AccessControl
	aggregator *RatingAggregator
	producer   *event.Producer
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewReviewService(
	reviews repository.ReviewRepository,
	tools repository.ToolRepository,
	uow repository.UnitOfWork,
	access *AccessControl,
	aggregator *RatingAggregator,
	producer *event.Producer,
	metrics *Metrics,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		tools:      tools,
		uow:        uow,
		access:     access,
		aggregator: aggregator,
		producer:   producer,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitReviewInput holds the parameters for a new review.
type SubmitReviewInput struct {
	ToolID  string
	UserID  string
	Rating  int
	Comment string
}

// ListReviewsInput narrows a review listing. An empty Status means "any"
// for admins and "approved" for everyone else.
type ListReviewsInput struct {
	ToolID string
	Status string
}

// Submit records a pending review. It does not affect the tool's rating.
func (s *ReviewService) Submit(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if err := domain.ValidateRating(input.Rating); err != nil {
		return nil, err
	}
	if err := validateID("tool_id", input.ToolID); err != nil {
		return nil, err
	}

	tool, err := s.tools.GetByID(ctx, input.ToolID)
	if err != nil {
		return nil, err
	}

	review, err := domain.NewReview(tool, input.UserID, input.Rating, input.Comment, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.reviewSubmitted()
	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("tool_id", review.ToolID),
		slog.String("user_id", review.UserID),
	)
	return review, nil
}

// Moderate sets a review to approved or rejected and refreshes the tool's
// aggregate in the same unit of work. Reviews already moderated may be
// moderated again.
func (s *ReviewService) Moderate(ctx context.Context, actor *domain.User, reviewID, status string) (*domain.Review, error) {
	if err := s.access.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	target, err := domain.ParseModerationStatus(status)
	if err != nil {
		return nil, err
	}

	existing, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Review
		agg     domain.RatingAggregate
	)
	err = s.uow.WithToolLock(ctx, existing.ToolID, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		if updated, err = repos.Reviews.UpdateStatus(ctx, reviewID, target); err != nil {
			return err
		}
		agg, err = s.aggregator.recomputeIn(ctx, repos, existing.ToolID)
		return err
	})
	if err != nil {
		// The tool vanished between the read and the lock; its reviews went with it.
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("review", reviewID)
		}
		return nil, fmt.Errorf("moderate review: %w", err)
	}

	s.aggregator.committed(ctx, existing.ToolID, agg)

	if err := s.producer.PublishReviewModerated(ctx, updated, actor.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.reviewModerated(string(target))
	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", reviewID),
		slog.String("from", string(existing.Status)),
		slog.String("to", string(target)),
		slog.String("moderator_id", actor.ID),
	)
	return updated, nil
}

// List applies the visibility rule: non-admins, including anonymous
// viewers, only ever see approved reviews.
func (s *ReviewService) List(ctx context.Context, viewer *domain.User, input ListReviewsInput) ([]domain.Review, error) {
	if input.ToolID != "" {
		if err := validateID("tool_id", input.ToolID); err != nil {
			return nil, err
		}
	}
	filter := repository.ReviewFilter{ToolID: input.ToolID}
	if input.Status != "" {
		status, err := domain.ParseReviewStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	if !viewer.IsAdmin() {
		if filter.Status != "" && filter.Status != domain.ReviewApproved {
			return nil, apperrors.Forbidden("only approved reviews are visible")
		}
		filter.Status = domain.ReviewApproved
	}

	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Get returns one review. A review that viewer may not see is reported as
// missing.
func (s *ReviewService) Get(ctx context.Context, viewer *domain.User, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Status != domain.ReviewApproved && !viewer.IsAdmin() {
		return nil, apperrors.NotFound("review", id)
	}
	return review, nil
}

// validateID rejects ids that are not UUIDs before they reach the store.
func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.InvalidInput(field + " must be a valid UUID")
	}
	return nil
}
