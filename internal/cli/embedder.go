package cli

import (
	"fmt"

	"assistant/config"
	"assistant/internal/adapter/embedding"
	"assistant/internal/port"
)

// newEmbedder builds the configured embedding backend. The mock
// provider exists for offline development and tests; it needs no key.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	case "openai", "":
		return embedding.NewOpenAIEmbedder(
			cfg.Embedding.APIKeyEnv,
			cfg.Embedding.Model,
			cfg.Embedding.BaseURL,
		)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}
