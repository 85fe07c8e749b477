package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether u may moderate reviews and manage tools.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds a user with a fresh id. The email is normalized.
func NewUser(email, name, passwordHash, role string) (*User, error) {
	email = NormalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperrors.InvalidInput("email must be a valid address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if passwordHash == "" {
		return nil, apperrors.InvalidInput("password hash is required")
	}
	if !IsValidRole(role) {
		return nil, apperrors.InvalidInput("invalid role: " + role)
	}

	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
