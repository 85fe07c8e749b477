// Command seed loads a starter set of tools into the configured store.
// Tools that already exist are skipped, so it is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/ToolCatalog/internal/app"
	"github.com/utafrali/ToolCatalog/internal/config"
	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/service"
	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
	"github.com/utafrali/ToolCatalog/pkg/logger"
)

var sampleTools = []service.ToolInput{
	{Name: "GPT-4", UseCase: "Text generation and language understanding", Category: domain.CategoryNLP, PricingModel: domain.PricingPaid},
	{Name: "Midjourney", UseCase: "AI image generation from text prompts", Category: domain.CategoryComputerVision, PricingModel: domain.PricingSubscription},
	{Name: "GitHub Copilot", UseCase: "AI-powered code completion", Category: domain.CategoryDevTools, PricingModel: domain.PricingSubscription},
	{Name: "DALL-E 3", UseCase: "Create realistic images from descriptions", Category: domain.CategoryComputerVision, PricingModel: domain.PricingPaid},
	{Name: "Hugging Face", UseCase: "Open-source ML models and datasets", Category: domain.CategoryNLP, PricingModel: domain.PricingFree},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("toolcatalog-seed", cfg.LogLevel)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	created, err := seed(ctx, application.Tools(), log)
	cancel()
	_ = application.Shutdown()

	if err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete", slog.Int("created", created), slog.Int("total", len(sampleTools)))
}

func seed(ctx context.Context, tools *service.ToolService, log *slog.Logger) (int, error) {
	created := 0
	for _, in := range sampleTools {
		tool, err := tools.Create(ctx, in)
		switch {
		case err == nil:
			created++
			log.Info("tool created", slog.String("id", tool.ID), slog.String("name", tool.Name))
		case errors.Is(err, apperrors.ErrAlreadyExists):
			log.Info("tool already present", slog.String("name", in.Name))
		default:
			return created, err
		}
	}
	return created, nil
}
