package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ToolCatalog/internal/auth"
	"github.com/utafrali/ToolCatalog/internal/domain"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func newTestAccess(users *mockUserRepository) (*AccessControl, *auth.TokenManager) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	return NewAccessControl(tokens, users, newTestLogger()), tokens
}

func TestAccessControl_Authenticate(t *testing.T) {
	users := new(mockUserRepository)
	access, tokens := newTestAccess(users)

	u := &domain.User{ID: "u-1", Email: "a@example.com", Role: domain.RoleUser}
	users.On("GetByID", mock.Anything, "u-1").Return(u, nil)

	token, _, err := tokens.Issue("u-1")
	require.NoError(t, err)

	got, err := access.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	users.AssertExpectations(t)
}

func TestAccessControl_Authenticate_ExpiredToken(t *testing.T) {
	users := new(mockUserRepository)
	access, tokens := newTestAccess(users)

	token, _, err := tokens.IssueWithTTL("u-1", -time.Minute)
	require.NoError(t, err)

	_, err = access.Authenticate(context.Background(), token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAccessControl_Authenticate_Garbage(t *testing.T) {
	access, _ := newTestAccess(new(mockUserRepository))

	_, err := access.Authenticate(context.Background(), "not.a.token")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAccessControl_Authenticate_UnknownSubject(t *testing.T) {
	users := new(mockUserRepository)
	access, tokens := newTestAccess(users)
	users.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.NotFound("user", "ghost"))

	token, _, err := tokens.Issue("ghost")
	require.NoError(t, err)

	_, err = access.Authenticate(context.Background(), token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAccessControl_Authenticate_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	access, tokens := newTestAccess(users)
	users.On("GetByID", mock.Anything, "u-1").Return(nil, errors.New("connection refused"))

	token, _, err := tokens.Issue("u-1")
	require.NoError(t, err)

	_, err = access.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAccessControl_RequireRole(t *testing.T) {
	access, _ := newTestAccess(new(mockUserRepository))

	assert.NoError(t, access.RequireRole(&domain.User{Role: domain.RoleAdmin}, domain.RoleAdmin))
	assert.True(t, errors.Is(access.RequireRole(&domain.User{Role: domain.RoleUser}, domain.RoleAdmin), apperrors.ErrForbidden))
	assert.True(t, errors.Is(access.RequireRole(nil, domain.RoleAdmin), apperrors.ErrUnauthorized))
}

func TestAccessControl_ValidateToken(t *testing.T) {
	users := new(mockUserRepository)
	access, tokens := newTestAccess(users)
	users.On("GetByID", mock.Anything, "u-1").
		Return(&domain.User{ID: "u-1", Email: "a@example.com", Role: domain.RoleAdmin}, nil)

	token, _, err := tokens.Issue("u-1")
	require.NoError(t, err)

	claims, err := access.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	actor := ActorFromClaims(claims)
	assert.True(t, actor.IsAdmin())
	assert.Nil(t, ActorFromClaims(nil))
}
