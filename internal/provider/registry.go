package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/logging"
)

// Registry manages all available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	cfg       *config.Config
}

// NewRegistry creates a new provider registry.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		cfg:       cfg,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by ID.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return provider, nil
}

// List returns all providers.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// Resolve returns the provider and model ID for a "provider/model" string,
// falling back to the configured default model, then to any registered
// provider's default.
func (r *Registry) Resolve(modelString string) (Provider, string, error) {
	if modelString == "" && r.cfg != nil {
		modelString = r.cfg.Model
	}

	providerID, modelID := ParseModelString(modelString)
	if providerID != "" {
		p, err := r.Get(providerID)
		if err != nil {
			return nil, "", err
		}
		return p, modelID, nil
	}

	// Bare model name or nothing configured: prefer anthropic, then openai.
	for _, id := range []string{"anthropic", "openai"} {
		if p, err := r.Get(id); err == nil {
			return p, modelID, nil
		}
	}
	for _, p := range r.List() {
		return p, modelID, nil
	}
	return nil, "", fmt.Errorf("no providers registered")
}

// FromConfig builds a registry with every enabled provider the config can
// authenticate.
func FromConfig(ctx context.Context, cfg *config.Config) (*Registry, error) {
	r := NewRegistry(cfg)
	log := logging.With("provider")

	for name, pc := range cfg.Provider {
		if pc.Disabled {
			continue
		}
		switch name {
		case "anthropic":
			p, err := NewAnthropicProvider(ctx, &AnthropicConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
			})
			if err != nil {
				log.Warn().Err(err).Msg("skipping anthropic provider")
				continue
			}
			r.Register(p)
		case "openai":
			p, err := NewOpenAIProvider(ctx, &OpenAIConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
			})
			if err != nil {
				log.Warn().Err(err).Msg("skipping openai provider")
				continue
			}
			r.Register(p)
		default:
			log.Warn().Str("provider", name).Msg("unknown provider in config")
		}
	}

	if len(r.providers) == 0 {
		return nil, fmt.Errorf("no usable providers configured; set ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
	return r, nil
}
