package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ToolCatalog/internal/repository"
	"github.com/utafrali/ToolCatalog/pkg/database"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

// UnitOfWork implements repository.UnitOfWork with a transaction that
// holds a row lock on the tool for its whole duration.
type UnitOfWork struct {
	db database.DBTX
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db database.DBTX) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithToolLock(ctx context.Context, toolID string, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return database.WithTx(ctx, u.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM tools WHERE id = $1 FOR UPDATE`, toolID).Scan(&id)
		if err != nil {
			if database.IsNoRows(err) {
				return apperrors.NotFound("tool", toolID)
			}
			return fmt.Errorf("lock tool: %w", err)
		}

		return fn(ctx, repository.TxRepositories{
			Tools:   NewToolRepository(tx),
			Reviews: NewReviewRepository(tx),
		})
	})
}
