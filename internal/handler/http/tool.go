package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ToolCatalog/internal/service"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
	"github.com/utafrali/ToolCatalog/pkg/httputil"
	"github.com/utafrali/ToolCatalog/pkg/pagination"
)

// ToolHandler handles HTTP requests for the tool catalog.
type ToolHandler struct {
	service *service.ToolService
	logger  *slog.Logger
}

func NewToolHandler(svc *service.ToolService, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{service: svc, logger: logger}
}

// ToolRequest is the JSON body for creating or replacing a tool. Rating
// fields are not part of it and are ignored if sent.
type ToolRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	UseCase      string `json:"use_case" validate:"required,max=2000"`
	Category     string `json:"category" validate:"required"`
	PricingModel string `json:"pricing_model" validate:"required"`
}

func (req ToolRequest) input() service.ToolInput {
	return service.ToolInput{
		Name:         req.Name,
		UseCase:      req.UseCase,
		Category:     req.Category,
		PricingModel: req.PricingModel,
	}
}

// List handles GET /api/v1/tools
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := service.ListToolsInput{
		Category:     q.Get("category"),
		PricingModel: q.Get("pricing"),
		Page:         pagination.FromRequest(r),
	}
	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("min_rating must be a number"), h.logger)
			return
		}
		input.MinRating = &v
	}

	result, err := h.service.List(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Get handles GET /api/v1/tools/{id}
func (h *ToolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	tool, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, tool)
}

// Create handles POST /api/v1/tools
func (h *ToolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ToolRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	tool, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, tool)
}

// Update handles PUT /api/v1/tools/{id}
func (h *ToolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ToolRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	tool, err := h.service.Update(r.Context(), id.String(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, tool)
}

// Delete handles DELETE /api/v1/tools/{id}
func (h *ToolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
