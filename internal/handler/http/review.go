package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ToolCatalog/internal/service"
	"github.com/utafrali/ToolCatalog/pkg/httputil"
	"github.com/utafrali/ToolCatalog/pkg/middleware"
)

// ReviewHandler handles HTTP requests for reviews and their moderation.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// SubmitReviewRequest is the JSON body for a new review. The rating range
// is enforced by the service so every caller gets the same error.
type SubmitReviewRequest struct {
	ToolID  string `json:"tool_id" validate:"required,uuid"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ModerateReviewRequest is the JSON body for a moderation decision.
type ModerateReviewRequest struct {
	Status string `json:"status" validate:"required"`
}

// List handles GET /api/v1/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	viewer := service.ActorFromClaims(middleware.ClaimsFromContext(r.Context()))

	reviews, err := h.service.List(r.Context(), viewer, service.ListReviewsInput{
		ToolID: q.Get("tool_id"),
		Status: q.Get("status"),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, reviews)
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	viewer := service.ActorFromClaims(middleware.ClaimsFromContext(r.Context()))

	review, err := h.service.Get(r.Context(), viewer, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// Submit handles POST /api/v1/reviews
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.Submit(r.Context(), service.SubmitReviewInput{
		ToolID:  req.ToolID,
		UserID:  middleware.UserIDFromContext(r.Context()),
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, review)
}

// Moderate handles PATCH /api/v1/reviews/{id}
func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ModerateReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	actor := service.ActorFromClaims(middleware.ClaimsFromContext(r.Context()))
	review, err := h.service.Moderate(r.Context(), actor, id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}
