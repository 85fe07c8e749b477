package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ToolCatalog/internal/domain"
	pkgkafka "github.com/utafrali/ToolCatalog/pkg/kafka"
)

// Kafka topics for catalog domain events.
const (
	TopicUserRegistered    = "toolcatalog.user.registered"
	TopicReviewSubmitted   = "toolcatalog.review.submitted"
	TopicReviewModerated   = "toolcatalog.review.moderated"
	TopicToolRatingUpdated = "toolcatalog.tool.rating_updated"
)

// Aggregate types.
const (
	AggregateTypeUser   = "user"
	AggregateTypeReview = "review"
	AggregateTypeTool   = "tool"
)

const SourceToolCatalog = "toolcatalog"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ReviewData is the payload for review.submitted and review.moderated events.
type ReviewData struct {
	ID          string `json:"id"`
	ToolID      string `json:"tool_id"`
	UserID      string `json:"user_id"`
	Rating      int    `json:"rating"`
	Status      string `json:"status"`
	ModeratedBy string `json:"moderated_by,omitempty"`
}

// RatingUpdatedData is the payload for a tool.rating_updated event.
type RatingUpdatedData struct {
	ToolID        string  `json:"tool_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Producer publishes catalog domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewSubmitted, review.ID, AggregateTypeReview, reviewData(review, ""))
}

func (p *Producer) PublishReviewModerated(ctx context.Context, review *domain.Review, moderatorID string) error {
	return p.publish(ctx, TopicReviewModerated, review.ID, AggregateTypeReview, reviewData(review, moderatorID))
}

func (p *Producer) PublishToolRatingUpdated(ctx context.Context, toolID string, agg domain.RatingAggregate) error {
	data := RatingUpdatedData{
		ToolID:        toolID,
		AverageRating: agg.AverageRating,
		ReviewCount:   agg.ReviewCount,
	}
	return p.publish(ctx, TopicToolRatingUpdated, toolID, AggregateTypeTool, data)
}

func reviewData(r *domain.Review, moderatorID string) ReviewData {
	return ReviewData{
		ID:          r.ID,
		ToolID:      r.ToolID,
		UserID:      r.UserID,
		Rating:      r.Rating,
		Status:      string(r.Status),
		ModeratedBy: moderatorID,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceToolCatalog, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// LogPublisher stands in for Kafka when it is disabled: events are only logged.
type LogPublisher struct {
	logger *slog.Logger
}

var _ pkgkafka.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, evt *pkgkafka.Event) error {
	p.logger.DebugContext(ctx, "kafka disabled, event dropped",
		slog.String("topic", topic),
		slog.String("event_type", evt.EventType),
		slog.String("aggregate_id", evt.AggregateID),
	)
	return nil
}
