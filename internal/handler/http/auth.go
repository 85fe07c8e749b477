package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/service"
	"github.com/utafrali/ToolCatalog/pkg/httputil"
	"github.com/utafrali/ToolCatalog/pkg/middleware"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// RegisterRequest is the JSON request body for user registration. Password
// length and confirmation are checked by the service.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required,max=100"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Message   string       `json:"message"`
}

func sessionResponse(s *service.Session, message string) SessionResponse {
	return SessionResponse{
		User:      s.User,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Message:   message,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	session, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, sessionResponse(session, "registration successful"))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, sessionResponse(session, "login successful"))
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so the
// client discarding its copy is the whole operation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string]string{
		"message": "logged out; discard the token on the client",
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}
