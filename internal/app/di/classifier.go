// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"

	"review_backend/internal/config"
	"review_backend/internal/feature/sentiment/adapters/gemini"
	"review_backend/internal/feature/sentiment/adapters/local"
	"review_backend/internal/feature/sentiment/usecase"
)

// NewScorer builds the configured classifier backend. The local backend
// loads the model and vocabulary from disk once; any failure here is fatal
// for the server.
func NewScorer(ctx context.Context, cfg config.ClassifierConfig) (usecase.Scorer, error) {
	switch cfg.Backend {
	case config.ClassifierLocal:
		return local.Load(cfg.ModelPath, cfg.VocabPath, cfg.MaxSequenceLength)
	case config.ClassifierGemini:
		return gemini.NewScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	default:
		return nil, fmt.Errorf("unsupported classifier backend %q", cfg.Backend)
	}
}
