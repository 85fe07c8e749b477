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

const toolColumns = `id, name, use_case, category, pricing_model, average_rating, review_count, created_at, updated_at`

// ToolRepository implements repository.ToolRepository using PostgreSQL.
type ToolRepository struct {
	db database.DBTX
}

func NewToolRepository(db database.DBTX) *ToolRepository {
	return &ToolRepository{db: db}
}

func (r *ToolRepository) Create(ctx context.Context, t *domain.Tool) error {
	query := `
		INSERT INTO tools (` + toolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Name,
		t.UseCase,
		t.Category,
		t.PricingModel,
		t.AverageRating,
		t.ReviewCount,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("tool", "name", t.Name)
		}
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

func (r *ToolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1`

	var t domain.Tool
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.UseCase,
		&t.Category,
		&t.PricingModel,
		&t.AverageRating,
		&t.ReviewCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("tool", id)
		}
		return nil, fmt.Errorf("get tool: %w", err)
	}
	return &t, nil
}

// List filters by category, pricing model and minimum rating, ordered by name.
func (r *ToolRepository) List(ctx context.Context, f repository.ToolFilter) ([]domain.Tool, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.PricingModel != "" {
		args = append(args, f.PricingModel)
		where = append(where, fmt.Sprintf("pricing_model = $%d", len(args)))
	}
	if f.MinRating != nil {
		args = append(args, *f.MinRating)
		where = append(where, fmt.Sprintf("average_rating >= $%d", len(args)))
	}

	query := `SELECT ` + toolColumns + `, count(*) OVER() AS total_count FROM tools`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	tools := []domain.Tool{}
	total := 0
	for rows.Next() {
		var t domain.Tool
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.UseCase,
			&t.Category,
			&t.PricingModel,
			&t.AverageRating,
			&t.ReviewCount,
			&t.CreatedAt,
			&t.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan tool row: %w", err)
		}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tool rows: %w", err)
	}

	return tools, total, nil
}

// Update writes the editable columns only.
func (r *ToolRepository) Update(ctx context.Context, t *domain.Tool) error {
	query := `
		UPDATE tools
		SET name = $1, use_case = $2, category = $3, pricing_model = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query, t.Name, t.UseCase, t.Category, t.PricingModel, t.UpdatedAt, t.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("tool", "name", t.Name)
		}
		return fmt.Errorf("update tool: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tool", t.ID)
	}
	return nil
}

// Delete removes the tool; its reviews go with it through ON DELETE CASCADE.
func (r *ToolRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM tools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tool", id)
	}
	return nil
}

func (r *ToolRepository) SetRating(ctx context.Context, id string, agg domain.RatingAggregate) error {
	query := `
		UPDATE tools
		SET average_rating = $1, review_count = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, agg.AverageRating, agg.ReviewCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set tool rating: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tool", id)
	}
	return nil
}

func (r *ToolRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tools`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tools: %w", err)
	}
	return n, nil
}
