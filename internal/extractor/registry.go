package extractor

import (
	"fmt"
	"sync"
)

// Registry maps service keys to extractors.
type Registry struct {
	mu        sync.RWMutex
	byService map[string]Extractor
	order     []string
}

// NewRegistry returns a registry holding the provided extractors.
func NewRegistry(extractors ...Extractor) (*Registry, error) {
	r := &Registry{byService: make(map[string]Extractor)}
	for _, e := range extractors {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an extractor. Registering a service twice is an error.
func (r *Registry) Register(e Extractor) error {
	if e == nil {
		return fmt.Errorf("register extractor: nil extractor")
	}
	service := e.Service()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byService[service]; exists {
		return fmt.Errorf("register extractor: service %q already registered", service)
	}
	r.byService[service] = e
	r.order = append(r.order, service)
	return nil
}

// Get returns the extractor for service.
func (r *Registry) Get(service string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byService[service]
	return e, ok
}

// Services returns registered service keys in registration order.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
