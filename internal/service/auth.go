package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/utafrali/ToolCatalog/internal/auth"
	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/event"
	"github.com/utafrali/ToolCatalog/internal/repository"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

const minPasswordLength = 6

// PasswordHasher is the credential check AuthService relies on; it is
// satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyAbsent(password string) bool
}

var _ PasswordHasher = (*auth.PasswordHasher)(nil)

// AuthService registers accounts and opens sessions.
type AuthService struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	tokens   *auth.TokenManager
	producer *event.Producer
	metrics  *Metrics
	logger   *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *auth.TokenManager,
	producer *event.Producer,
	metrics *Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Session is a freshly issued bearer token and the user it belongs to.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a regular user and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if input.Password != input.ConfirmPassword {
		s.metrics.authAttempt("register", "invalid")
		return nil, apperrors.InvalidInput("passwords do not match")
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		s.metrics.authAttempt("register", "invalid")
		return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.createUser(ctx, input.Email, input.Name, input.Password, domain.RoleUser)
	if err != nil {
		s.metrics.authAttempt("register", outcomeOf(err))
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.authAttempt("register", "success")
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return session, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.VerifyAbsent(input.Password)
			s.metrics.authAttempt("login", "rejected")
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("load user for login: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.metrics.authAttempt("login", "rejected")
		s.logger.InfoContext(ctx, "login rejected", slog.String("user_id", user.ID))
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.authAttempt("login", "success")
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// EnsureAdmin creates the bootstrap administrator unless the email is
// already registered. An existing non-admin account is left alone and
// reported as a conflict.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			return nil, apperrors.AlreadyExists("user", "email", existing.Email)
		}
		return existing, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	user, err := s.createUser(ctx, email, "Administrator", password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bootstrap admin created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, name, password, role string) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(email, name, hash, role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
