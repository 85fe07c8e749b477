package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/service"
	"github.com/utafrali/ToolCatalog/pkg/httputil"
)

// CatalogHandler serves the static enumerations and admin statistics.
type CatalogHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewCatalogHandler(stats *service.StatsService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{stats: stats, logger: logger}
}

// Categories handles GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, domain.Categories())
}

// PricingModels handles GET /api/v1/pricing-models
func (h *CatalogHandler) PricingModels(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, domain.PricingModels())
}

// Stats handles GET /api/v1/stats
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
