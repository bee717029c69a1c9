package llms

import (
	"fmt"

	"github.com/impostorlabs/arena/pkg/config"
	"github.com/impostorlabs/arena/pkg/registry"
)

// LLMRegistry manages named LLM provider instances created from config.
type LLMRegistry struct {
	registry.Registry[LLMProvider]
}

func NewLLMRegistry() *LLMRegistry {
	return &LLMRegistry{
		Registry: registry.NewBaseRegistry[LLMProvider](),
	}
}

// CreateFromConfig instantiates a provider from its config and registers it
// under the given name.
func (r *LLMRegistry) CreateFromConfig(name string, cfg *config.LLMProviderConfig) (LLMProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required for LLM %q", name)
	}

	var provider LLMProvider
	var err error

	switch cfg.Type {
	case "openai":
		provider, err = NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM %q: %w", name, err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// Close shuts down every registered provider.
func (r *LLMRegistry) Close() error {
	var firstErr error
	for _, name := range r.Names() {
		provider, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
