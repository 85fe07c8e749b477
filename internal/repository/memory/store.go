// Package memory provides an in-process implementation of the repository
// interfaces. It backs STORE_DRIVER=memory and the service-level tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

// Store holds every entity behind one RWMutex. Values are copied in and out
// so callers never share memory with the store.
type Store struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	tools   map[string]domain.Tool
	reviews map[string]domain.Review

	locksMu   sync.Mutex
	toolLocks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		tools:     make(map[string]domain.Tool),
		reviews:   make(map[string]domain.Review),
		toolLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) Users() *UserRepository     { return &UserRepository{s: s} }
func (s *Store) Tools() *ToolRepository     { return &ToolRepository{s: s} }
func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{s: s} }
func (s *Store) UnitOfWork() *UnitOfWork    { return &UnitOfWork{s: s} }

// UserRepository implements repository.UserRepository.
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

// ToolRepository implements repository.ToolRepository.
type ToolRepository struct{ s *Store }

func (r *ToolRepository) Create(_ context.Context, t *domain.Tool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.tools {
		if existing.Name == t.Name {
			return apperrors.AlreadyExists("tool", "name", t.Name)
		}
	}
	r.s.tools[t.ID] = *t
	return nil
}

func (r *ToolRepository) GetByID(_ context.Context, id string) (*domain.Tool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tools[id]
	if !ok {
		return nil, apperrors.NotFound("tool", id)
	}
	return &t, nil
}

func (r *ToolRepository) List(_ context.Context, f repository.ToolFilter) ([]domain.Tool, int, error) {
	r.s.mu.RLock()
	matched := make([]domain.Tool, 0, len(r.s.tools))
	for _, t := range r.s.tools {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.PricingModel != "" && t.PricingModel != f.PricingModel {
			continue
		}
		if f.MinRating != nil && t.AverageRating < *f.MinRating {
			continue
		}
		matched = append(matched, t)
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if f.Limit <= 0 {
		return matched, total, nil
	}
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func (r *ToolRepository) Update(_ context.Context, t *domain.Tool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tools[t.ID]
	if !ok {
		return apperrors.NotFound("tool", t.ID)
	}
	for _, existing := range r.s.tools {
		if existing.ID != t.ID && existing.Name == t.Name {
			return apperrors.AlreadyExists("tool", "name", t.Name)
		}
	}
	cur.Name = t.Name
	cur.UseCase = t.UseCase
	cur.Category = t.Category
	cur.PricingModel = t.PricingModel
	cur.UpdatedAt = t.UpdatedAt
	r.s.tools[t.ID] = cur
	return nil
}

func (r *ToolRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tools[id]; !ok {
		return apperrors.NotFound("tool", id)
	}
	delete(r.s.tools, id)
	for rid, rv := range r.s.reviews {
		if rv.ToolID == id {
			delete(r.s.reviews, rid)
		}
	}
	return nil
}

func (r *ToolRepository) SetRating(_ context.Context, id string, agg domain.RatingAggregate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tools[id]
	if !ok {
		return apperrors.NotFound("tool", id)
	}
	t.AverageRating = agg.AverageRating
	t.ReviewCount = agg.ReviewCount
	r.s.tools[id] = t
	return nil
}

func (r *ToolRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.tools), nil
}

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct{ s *Store }

func (r *ReviewRepository) Create(_ context.Context, rv *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tools[rv.ToolID]; !ok {
		return apperrors.NotFound("tool", rv.ToolID)
	}
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return &rv, nil
}

func (r *ReviewRepository) List(_ context.Context, f repository.ReviewFilter) ([]domain.Review, error) {
	r.s.mu.RLock()
	out := []domain.Review{}
	for _, rv := range r.s.reviews {
		if f.ToolID != "" && rv.ToolID != f.ToolID {
			continue
		}
		if f.UserID != "" && rv.UserID != f.UserID {
			continue
		}
		if f.Status != "" && rv.Status != f.Status {
			continue
		}
		out = append(out, rv)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ReviewRepository) UpdateStatus(_ context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	rv.Status = status
	rv.UpdatedAt = nowUTC()
	r.s.reviews[id] = rv
	return &rv, nil
}

func (r *ReviewRepository) ApprovedRatings(_ context.Context, toolID string) ([]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ratings []int
	for _, rv := range r.s.reviews {
		if rv.ToolID == toolID && rv.Status == domain.ReviewApproved {
			ratings = append(ratings, rv.Rating)
		}
	}
	return ratings, nil
}

func (r *ReviewRepository) CountByStatus(context.Context) (map[domain.ReviewStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.ReviewStatus]int, 3)
	for _, rv := range r.s.reviews {
		counts[rv.Status]++
	}
	return counts, nil
}
