package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/codesplice/codesplice/pkg/types"
)

// Factory creates a Strategy from configuration.
type Factory func(config Config) (Strategy, error)

// Registry holds chunking strategy factories by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register registers a strategy factory. Later registrations with the
// same name replace earlier ones.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a strategy by name.
func (r *Registry) Create(name string, config Config) (Strategy, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy %q: %w", name, types.ErrUnknownStrategy)
	}
	return factory(config)
}

// Names lists the registered strategy names, sorted.
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

// defaultRegistry is the registry builtin strategies register into.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a factory to the default registry.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Create instantiates a strategy from the default registry.
func Create(name string, config Config) (Strategy, error) {
	return defaultRegistry.Create(name, config)
}
