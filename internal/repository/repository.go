package repository

import (
	"context"

	"github.com/utafrali/ToolCatalog/internal/domain"
)

// ToolFilter narrows a tool listing. Zero values mean "any".
type ToolFilter struct {
	Category     string
	PricingModel string
	MinRating    *float64
	Limit        int
	Offset       int
}

// ReviewFilter narrows a review listing. Zero values mean "any".
type ReviewFilter struct {
	ToolID string
	UserID string
	Status domain.ReviewStatus
}

// UserRepository persists accounts.
type UserRepository interface {
	// Create fails with ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ToolRepository persists catalog entries.
type ToolRepository interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
	// List returns the page selected by filter plus the total match count.
	List(ctx context.Context, filter ToolFilter) ([]domain.Tool, int, error)
	// Update writes the editable fields; the rating columns are untouched.
	Update(ctx context.Context, tool *domain.Tool) error
	// Delete removes the tool and all of its reviews.
	Delete(ctx context.Context, id string) error
	// SetRating overwrites the derived aggregate.
	SetRating(ctx context.Context, id string, agg domain.RatingAggregate) error
	Count(ctx context.Context) (int, error)
}

// ReviewRepository persists reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	// List returns matches newest first.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error)
	// ApprovedRatings returns the rating of every approved review of a tool.
	ApprovedRatings(ctx context.Context, toolID string) ([]int, error)
	CountByStatus(ctx context.Context) (map[domain.ReviewStatus]int, error)
}

// TxRepositories are the repositories bound to one unit of work.
type TxRepositories struct {
	Tools   ToolRepository
	Reviews ReviewRepository
}

// UnitOfWork serializes writes that touch one tool's reviews and aggregate.
type UnitOfWork interface {
	// WithToolLock runs fn while holding an exclusive lock on toolID. All
	// writes made through repos commit together when fn returns nil and are
	// discarded otherwise. A missing tool yields ErrNotFound.
	WithToolLock(ctx context.Context, toolID string, fn func(ctx context.Context, repos TxRepositories) error) error
}
