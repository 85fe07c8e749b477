package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

// Tool categories.
const (
	CategoryNLP            = "NLP"
	CategoryComputerVision = "Computer Vision"
	CategoryDevTools       = "Dev Tools"
	CategoryAudio          = "Audio"
	CategoryVideo          = "Video"
	CategoryDataAnalytics  = "Data Analytics"
)

// Pricing models.
const (
	PricingFree         = "Free"
	PricingPaid         = "Paid"
	PricingSubscription = "Subscription"
)

// Categories returns the fixed set of tool categories in display order.
func Categories() []string {
	return []string{
		CategoryNLP, CategoryComputerVision, CategoryDevTools,
		CategoryAudio, CategoryVideo, CategoryDataAnalytics,
	}
}

// PricingModels returns the fixed set of pricing models in display order.
func PricingModels() []string {
	return []string{PricingFree, PricingPaid, PricingSubscription}
}

func IsValidCategory(c string) bool { return slices.Contains(Categories(), c) }

func IsValidPricingModel(p string) bool { return slices.Contains(PricingModels(), p) }

// Tool is a catalog entry. AverageRating and ReviewCount are derived from
// approved reviews and are only ever written by the rating aggregator.
type Tool struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	UseCase       string    `json:"use_case"`
	Category      string    `json:"category"`
	PricingModel  string    `json:"pricing_model"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToolDetails are the client-editable fields of a tool.
type ToolDetails struct {
	Name         string
	UseCase      string
	Category     string
	PricingModel string
}

func (d ToolDetails) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return apperrors.InvalidInput("name is required")
	}
	if strings.TrimSpace(d.UseCase) == "" {
		return apperrors.InvalidInput("use_case is required")
	}
	if !IsValidCategory(d.Category) {
		return apperrors.InvalidInput("category must be one of: " + strings.Join(Categories(), ", "))
	}
	if !IsValidPricingModel(d.PricingModel) {
		return apperrors.InvalidInput("pricing_model must be one of: " + strings.Join(PricingModels(), ", "))
	}
	return nil
}

// NewTool creates an unrated tool.
func NewTool(d ToolDetails) (*Tool, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Tool{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(d.Name),
		UseCase:      strings.TrimSpace(d.UseCase),
		Category:     d.Category,
		PricingModel: d.PricingModel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyDetails replaces the editable fields, leaving the rating untouched.
func (t *Tool) ApplyDetails(d ToolDetails) error {
	if err := d.validate(); err != nil {
		return err
	}
	t.Name = strings.TrimSpace(d.Name)
	t.UseCase = strings.TrimSpace(d.UseCase)
	t.Category = d.Category
	t.PricingModel = d.PricingModel
	t.UpdatedAt = time.Now().UTC()
	return nil
}
