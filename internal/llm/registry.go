package llm

import (
	"fmt"

	"markbench/internal/config"
)

// Factory is a function that creates a Generator from a provider config.
type Factory func(cfg *config.LLMProviderConfig) (Generator, error)

// registry of generator factories, populated by init() in each provider
// package or explicitly via Register.
var factories = map[string]Factory{}

// Register registers a generator factory by provider name.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// newGenerator creates a Generator from a provider config using the
// registered factory.
func newGenerator(cfg *config.LLMProviderConfig) (Generator, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
