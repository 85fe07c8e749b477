package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
	"github.com/utafrali/ToolCatalog/pkg/database"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

const reviewColumns = `id, tool_id, tool_name, user_id, rating, comment, status, review_date, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. A review for a tool that no longer exists
// violates the foreign key and is reported as NotFound.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		rv.ID,
		rv.ToolID,
		rv.ToolName,
		rv.UserID,
		rv.Rating,
		rv.Comment,
		string(rv.Status),
		rv.Date,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("tool", rv.ToolID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (domain.Review, error) {
	var (
		rv     domain.Review
		status string
	)
	err := row.Scan(
		&rv.ID,
		&rv.ToolID,
		&rv.ToolName,
		&rv.UserID,
		&rv.Rating,
		&rv.Comment,
		&status,
		&rv.Date,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	rv.Status = domain.ReviewStatus(status)
	return rv, err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

func (r *ReviewRepository) List(ctx context.Context, f repository.ReviewFilter) ([]domain.Review, error) {
	var (
		where []string
		args  []any
	)
	if f.ToolID != "" {
		args = append(args, f.ToolID)
		where = append(where, fmt.Sprintf("tool_id = $%d", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// UpdateStatus sets the status and returns the updated row.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + reviewColumns

	rv, err := scanReview(r.db.QueryRow(ctx, query, string(status), time.Now().UTC(), id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("update review status: %w", err)
	}
	return &rv, nil
}

func (r *ReviewRepository) ApprovedRatings(ctx context.Context, toolID string) ([]int, error) {
	query := `SELECT rating FROM reviews WHERE tool_id = $1 AND status = $2`

	rows, err := r.db.Query(ctx, query, toolID, string(domain.ReviewApproved))
	if err != nil {
		return nil, fmt.Errorf("list approved ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

func (r *ReviewRepository) CountByStatus(ctx context.Context) (map[domain.ReviewStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM reviews GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count reviews by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ReviewStatus]int, 3)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan review count: %w", err)
		}
		counts[domain.ReviewStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review counts: %w", err)
	}
	return counts, nil
}
