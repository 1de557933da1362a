package main

import (
	"context"
	"fmt"

	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/embedding"
	"github.com/researchatlas/atlas/internal/llm"
	"github.com/researchatlas/atlas/internal/openalex"
)

// newOpenAlexClient builds the works client from the openalex section.
func newOpenAlexClient(cfg *config.AppConfig) *openalex.Client {
	opts := []openalex.ClientOption{
		openalex.WithBaseURL(cfg.OpenAlex.BaseURL),
		openalex.WithRateLimit(cfg.OpenAlex.RateLimit),
		openalex.WithTimeout(cfg.OpenAlex.Timeout),
	}
	if cfg.OpenAlex.Email != "" {
		opts = append(opts, openalex.WithEmail(cfg.OpenAlex.Email))
	}
	return openalex.NewClient(opts...)
}

// newEmbeddingProvider builds the embedding backend named in the embedding section.
func newEmbeddingProvider(cfg *config.AppConfig) (embedding.Provider, error) {
	e := cfg.Embedding
	switch e.Provider {
	case config.ProviderOllama:
		opts := []embedding.OllamaOption{
			embedding.WithModel(e.Model),
			embedding.WithDimensions(e.Dimensions),
		}
		if e.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(e.BaseURL))
		}
		return embedding.NewOllamaProvider(opts...), nil
	case config.ProviderOpenAI:
		key, err := cfg.EmbeddingAPIKey()
		if err != nil {
			return nil, err
		}
		return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     key,
			BaseURL:    e.BaseURL,
			Model:      e.Model,
			Dimensions: e.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", e.Provider)
	}
}

// newGenerator builds the answer model named in the llm section.
func newGenerator(ctx context.Context, cfg *config.AppConfig) (llm.Generator, error) {
	key, err := cfg.LLMAPIKey()
	if err != nil {
		return nil, err
	}
	return llm.New(ctx, llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      key,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
	})
}

// mustEmbeddingProvider is newEmbeddingProvider that exits on failure.
func mustEmbeddingProvider(cfg *config.AppConfig) embedding.Provider {
	provider, err := newEmbeddingProvider(cfg)
	exitOnError(err, "creating embedding provider")
	return provider
}

// mustGenerator is newGenerator that exits on failure. A missing API key exits with ExitConfigError.
func mustGenerator(ctx context.Context, cfg *config.AppConfig) llm.Generator {
	gen, err := newGenerator(ctx, cfg)
	exitOnError(err, "creating language model client")
	return gen
}
