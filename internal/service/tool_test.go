package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
	rediscache "github.com/utafrali/ToolCatalog/internal/repository/redis"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
	"github.com/utafrali/ToolCatalog/pkg/pagination"
)

func validToolInput() ToolInput {
	return ToolInput{
		Name:         "Whisper",
		UseCase:      "Speech to text",
		Category:     domain.CategoryAudio,
		PricingModel: domain.PricingFree,
	}
}

func TestToolService_Create(t *testing.T) {
	tools := new(mockToolRepository)
	svc := NewToolService(tools, nil, newTestLogger())
	tools.On("Create", mock.Anything, mock.MatchedBy(func(tl *domain.Tool) bool {
		return tl.Name == "Whisper" && tl.AverageRating == 0 && tl.ReviewCount == 0
	})).Return(nil)

	got, err := svc.Create(context.Background(), validToolInput())
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	tools.AssertExpectations(t)
}

func TestToolService_Create_InvalidCategory(t *testing.T) {
	tools := new(mockToolRepository)
	svc := NewToolService(tools, nil, newTestLogger())

	in := validToolInput()
	in.Category = "Blockchain"
	_, err := svc.Create(context.Background(), in)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	tools.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestToolService_Get_CacheHit(t *testing.T) {
	tools := new(mockToolRepository)
	cache := new(mockToolCache)
	svc := NewToolService(tools, cache, newTestLogger())
	cache.On("Get", mock.Anything, sampleToolID).Return(sampleTool(), nil)

	got, err := svc.Get(context.Background(), sampleToolID)
	require.NoError(t, err)
	assert.Equal(t, sampleToolID, got.ID)
	tools.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestToolService_Get_CacheMissFillsCache(t *testing.T) {
	tools := new(mockToolRepository)
	cache := new(mockToolCache)
	svc := NewToolService(tools, cache, newTestLogger())

	tool := sampleTool()
	cache.On("Get", mock.Anything, sampleToolID).Return(nil, rediscache.ErrCacheMiss)
	tools.On("GetByID", mock.Anything, sampleToolID).Return(tool, nil)
	cache.On("Set", mock.Anything, tool).Return(nil)

	_, err := svc.Get(context.Background(), sampleToolID)
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestToolService_Get_CacheErrorFallsBack(t *testing.T) {
	tools := new(mockToolRepository)
	cache := new(mockToolCache)
	svc := NewToolService(tools, cache, newTestLogger())

	cache.On("Get", mock.Anything, sampleToolID).Return(nil, errors.New("redis down"))
	tools.On("GetByID", mock.Anything, sampleToolID).Return(sampleTool(), nil)
	cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	got, err := svc.Get(context.Background(), sampleToolID)
	require.NoError(t, err)
	assert.Equal(t, sampleToolID, got.ID)
}

func TestToolService_List(t *testing.T) {
	tools := new(mockToolRepository)
	svc := NewToolService(tools, nil, newTestLogger())

	minRating := 4.0
	tools.On("List", mock.Anything, repository.ToolFilter{
		Category:  domain.CategoryNLP,
		MinRating: &minRating,
		Limit:     10,
		Offset:    10,
	}).Return([]domain.Tool{*sampleTool()}, 11, nil)

	res, err := svc.List(context.Background(), ListToolsInput{
		Category:  domain.CategoryNLP,
		MinRating: &minRating,
		Page:      pagination.Params{Page: 2, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 11, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.False(t, res.HasNext)
}

func TestToolService_List_RejectsBadFilters(t *testing.T) {
	svc := NewToolService(new(mockToolRepository), nil, newTestLogger())
	tooHigh := 6.0

	_, err := svc.List(context.Background(), ListToolsInput{PricingModel: "Lifetime"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.List(context.Background(), ListToolsInput{MinRating: &tooHigh})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestToolService_UpdateInvalidatesCache(t *testing.T) {
	tools := new(mockToolRepository)
	cache := new(mockToolCache)
	svc := NewToolService(tools, cache, newTestLogger())

	tool := sampleTool()
	tool.AverageRating = 4.2
	tools.On("GetByID", mock.Anything, sampleToolID).Return(tool, nil)
	tools.On("Update", mock.Anything, tool).Return(nil)
	cache.On("Invalidate", mock.Anything, sampleToolID).Return(nil)

	in := validToolInput()
	in.Name = "Whisper v3"
	got, err := svc.Update(context.Background(), sampleToolID, in)
	require.NoError(t, err)
	assert.Equal(t, "Whisper v3", got.Name)
	assert.Equal(t, 4.2, got.AverageRating)
	cache.AssertExpectations(t)
}

func TestToolService_Delete(t *testing.T) {
	tools := new(mockToolRepository)
	cache := new(mockToolCache)
	svc := NewToolService(tools, cache, newTestLogger())

	tools.On("Delete", mock.Anything, sampleToolID).Return(nil)
	cache.On("Invalidate", mock.Anything, sampleToolID).Return(nil)
	require.NoError(t, svc.Delete(context.Background(), sampleToolID))

	tools.On("Delete", mock.Anything, "t-x").Return(apperrors.NotFound("tool", "t-x"))
	assert.True(t, errors.Is(svc.Delete(context.Background(), "t-x"), apperrors.ErrNotFound))
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, "t-x")
}

func TestStatsService_Get(t *testing.T) {
	tools := new(mockToolRepository)
	reviews := new(mockReviewRepository)
	svc := NewStatsService(tools, reviews)

	tools.On("Count", mock.Anything).Return(4, nil)
	reviews.On("CountByStatus", mock.Anything).Return(map[domain.ReviewStatus]int{
		domain.ReviewPending:  2,
		domain.ReviewApproved: 5,
		domain.ReviewRejected: 1,
	}, nil)

	stats, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.Stats{
		TotalTools:      4,
		TotalReviews:    8,
		PendingReviews:  2,
		ApprovedReviews: 5,
		RejectedReviews: 1,
	}, stats)
}
