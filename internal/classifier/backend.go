package classifier

import (
	"context"
	"fmt"

	"pixly/internal/config"
	"pixly/internal/services"
	"pixly/internal/services/gemini"
	"pixly/internal/services/llm"
)

// NewCompleter builds the backend selected by cfg.AI.Provider. It returns
// nil when AI categorization is disabled.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	if cfg == nil || !cfg.AI.Enabled {
		return nil, nil
	}
	if err := cfg.ValidateAI(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "backend", "", err)
	}
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:         cfg.AI.APIKey,
			Model:          cfg.AI.Model,
			BaseURL:        cfg.AI.BaseURL,
			TimeoutSeconds: cfg.AI.TimeoutSeconds,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenRouter:
		return llm.NewClient(llm.Config{
			APIKey:         cfg.AI.APIKey,
			BaseURL:        cfg.AI.BaseURL,
			Model:          cfg.AI.Model,
			TimeoutSeconds: cfg.AI.TimeoutSeconds,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "classify", "backend", fmt.Sprintf("unsupported provider %q", cfg.AI.Provider), nil)
	}
}

// NewFromConfig builds a classifier with the configured backend and limits.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts Options) (*Classifier, error) {
	completer, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts.Completer = completer
	opts.MinInterval = cfg.AIMinInterval()
	opts.MinTextLength = cfg.AI.MinTextLength
	opts.MinOCRConfidence = cfg.AI.MinOCRConfidence
	return New(opts), nil
}
