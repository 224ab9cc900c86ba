package provider

import (
	"fmt"
	"sync"
)

// Factory builds a gateway from a connection's base URL and decoded
// credentials. Credential decryption happens upstream; factories receive
// plaintext values.
type Factory func(baseURL string, credentials map[string]interface{}) (Gateway, error)

// Registry maps provider types to gateway factories. Variants are registered
// once at startup; lookups after that are read-only.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(providerType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[providerType] = factory
}

func (r *Registry) Build(providerType, baseURL string, credentials map[string]interface{}) (Gateway, error) {
	r.mu.RLock()
	factory, ok := r.factories[providerType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider type %q", providerType)
	}
	return factory(baseURL, credentials)
}

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}
