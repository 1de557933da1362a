package embedding

import "context"

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions, or 0 if not known in advance.
	Dimensions() int
}

// HealthChecker is implemented by providers that can verify their backend before a build.
type HealthChecker interface {
	// Check returns ErrUnavailable or ErrModelNotFound (wrapped) when the provider cannot embed.
	Check(ctx context.Context) error
}

// Check runs the provider's health check if it has one.
func Check(ctx context.Context, p Provider) error {
	if hc, ok := p.(HealthChecker); ok {
		return hc.Check(ctx)
	}
	return nil
}
