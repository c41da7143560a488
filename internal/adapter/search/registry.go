package search

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xiaot623/legalflow/internal/config"
)

// Factory builds a provider from configuration.
type Factory func(cfg config.SearchConfig) (Provider, error)

// Registry stores provider factories keyed by provider name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// DefaultRegistry holds the built-in providers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for a provider name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	if factory == nil {
		return fmt.Errorf("factory is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("factory already registered for %s", name)
	}
	r.factories[name] = factory
	return nil
}

// New builds the provider named by cfg.Provider.
func (r *Registry) New(cfg config.SearchConfig) (Provider, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("search provider is required")
	}
	r.mu.RLock()
	factory := r.factories[cfg.Provider]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("no search provider registered for %s (have %v)", cfg.Provider, r.Names())
	}
	return factory(cfg)
}

// Names lists the registered providers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustRegister adds a factory to the default registry or panics.
func MustRegister(name string, factory Factory) {
	if err := DefaultRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}

// New builds a provider from the default registry and applies the
// configured rate limit.
func New(cfg config.SearchConfig) (Provider, error) {
	p, err := DefaultRegistry.New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RatePerSecond > 0 {
		p = NewRateLimited(p, cfg.RatePerSecond, cfg.Burst)
	}
	return p, nil
}
