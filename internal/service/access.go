package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/ToolCatalog/internal/auth"
	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/repository"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
	"github.com/utafrali/ToolCatalog/pkg/middleware"
)

// AccessControl resolves session tokens to users and enforces roles.
type AccessControl struct {
	tokens *auth.TokenManager
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAccessControl(tokens *auth.TokenManager, users repository.UserRepository, logger *slog.Logger) *AccessControl {
	return &AccessControl{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// Authenticate returns the user a token was issued to. Every token or
// lookup failure is reported as the same Unauthorized error; only a broken
// store surfaces differently.
func (a *AccessControl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			a.logger.WarnContext(ctx, "token subject not found",
				slog.String("user_id", claims.Subject),
			)
			return nil, apperrors.Unauthorized("invalid or expired token")
		}
		return nil, fmt.Errorf("load token subject: %w", err)
	}
	return user, nil
}

// RequireRole fails with Forbidden unless user holds role.
func (a *AccessControl) RequireRole(user *domain.User, role string) error {
	if user == nil {
		return apperrors.Unauthorized("authentication required")
	}
	if user.Role != role {
		return apperrors.Forbidden(role + " role required")
	}
	return nil
}

// ValidateToken adapts Authenticate to middleware.TokenValidator.
func (a *AccessControl) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	user, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// ActorFromClaims rebuilds the authenticated user carried by a request.
// A nil claims value is an anonymous caller.
func ActorFromClaims(c *middleware.Claims) *domain.User {
	if c == nil {
		return nil
	}
	return &domain.User{ID: c.UserID, Email: c.Email, Role: c.Role}
}
