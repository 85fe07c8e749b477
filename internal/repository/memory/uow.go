package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// UnitOfWork implements repository.UnitOfWork with a mutex per tool. Writes
// made through the callback's repositories are journaled, and on failure
// only those rows are put back, so concurrent writers outside the lock keep
// their changes.
type UnitOfWork struct{ s *Store }

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

func (s *Store) toolLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.toolLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.toolLocks[id] = l
	}
	return l
}

// undoLog keeps the before-image of every row written inside one unit of
// work. A nil image means the row did not exist.
type undoLog struct {
	s       *Store
	mu      sync.Mutex
	tools   map[string]*domain.Tool
	reviews map[string]*domain.Review
}

func newUndoLog(s *Store) *undoLog {
	return &undoLog{
		s:       s,
		tools:   make(map[string]*domain.Tool),
		reviews: make(map[string]*domain.Review),
	}
}

func (u *undoLog) saveTool(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, seen := u.tools[id]; seen {
		return
	}

	u.s.mu.RLock()
	t, ok := u.s.tools[id]
	u.s.mu.RUnlock()
	if ok {
		u.tools[id] = &t
	} else {
		u.tools[id] = nil
	}
}

func (u *undoLog) saveReview(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, seen := u.reviews[id]; seen {
		return
	}

	u.s.mu.RLock()
	rv, ok := u.s.reviews[id]
	u.s.mu.RUnlock()
	if ok {
		u.reviews[id] = &rv
	} else {
		u.reviews[id] = nil
	}
}

func (u *undoLog) reviewIDsOf(toolID string) []string {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	var ids []string
	for id, rv := range u.s.reviews {
		if rv.ToolID == toolID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (u *undoLog) rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for id, t := range u.tools {
		if t == nil {
			delete(u.s.tools, id)
		} else {
			u.s.tools[id] = *t
		}
	}
	for id, rv := range u.reviews {
		if rv == nil {
			delete(u.s.reviews, id)
		} else {
			u.s.reviews[id] = *rv
		}
	}
}

// txToolRepository journals tool writes before applying them.
type txToolRepository struct {
	*ToolRepository
	undo *undoLog
}

func (r txToolRepository) Create(ctx context.Context, t *domain.Tool) error {
	r.undo.saveTool(t.ID)
	return r.ToolRepository.Create(ctx, t)
}

func (r txToolRepository) Update(ctx context.Context, t *domain.Tool) error {
	r.undo.saveTool(t.ID)
	return r.ToolRepository.Update(ctx, t)
}

func (r txToolRepository) Delete(ctx context.Context, id string) error {
	r.undo.saveTool(id)
	for _, rid := range r.undo.reviewIDsOf(id) {
		r.undo.saveReview(rid)
	}
	return r.ToolRepository.Delete(ctx, id)
}

func (r txToolRepository) SetRating(ctx context.Context, id string, agg domain.RatingAggregate) error {
	r.undo.saveTool(id)
	return r.ToolRepository.SetRating(ctx, id, agg)
}

// txReviewRepository journals review writes before applying them.
type txReviewRepository struct {
	*ReviewRepository
	undo *undoLog
}

func (r txReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	r.undo.saveReview(rv.ID)
	return r.ReviewRepository.Create(ctx, rv)
}

func (r txReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	r.undo.saveReview(id)
	return r.ReviewRepository.UpdateStatus(ctx, id, status)
}

func (u *UnitOfWork) WithToolLock(ctx context.Context, toolID string, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	l := u.s.toolLock(toolID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	u.s.mu.RLock()
	_, ok := u.s.tools[toolID]
	u.s.mu.RUnlock()
	if !ok {
		return apperrors.NotFound("tool", toolID)
	}

	undo := newUndoLog(u.s)
	err := fn(ctx, repository.TxRepositories{
		Tools:   txToolRepository{ToolRepository: u.s.Tools(), undo: undo},
		Reviews: txReviewRepository{ReviewRepository: u.s.Reviews(), undo: undo},
	})
	if err != nil {
		undo.rollback()
		return err
	}
	return nil
}
