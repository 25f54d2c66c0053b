package source

import (
	"context"
	"fmt"
	"sync"
)

// Registry is a thread-safe mapping of storage-source names to sources.
// It provides registration and lookup for every backend the process knows
// about, and implements ConnectionFactory so repositories can open
// connections by name.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a named source to the registry.
// Returns an error if a source with the same name already exists.
func (r *Registry) Register(src Source) error {
	if src == nil {
		return fmt.Errorf("cannot register nil source")
	}
	if src.Name() == "" {
		return fmt.Errorf("cannot register source with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[src.Name()]; exists {
		return fmt.Errorf("source %q already registered", src.Name())
	}

	r.sources[src.Name()] = src
	return nil
}

// SourceByName retrieves a source by name. The second return is false when
// no source with that name is registered; callers treat an absent source's
// capabilities as empty rather than as an error.
func (r *Registry) SourceByName(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, exists := r.sources[name]
	return src, exists
}

// ConnectionFor implements ConnectionFactory.
// Returns ErrSourceNotFound for unknown names.
func (r *Registry) ConnectionFor(ctx context.Context, sourceName string) (Connection, error) {
	src, exists := r.SourceByName(sourceName)
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, sourceName)
	}
	return src.Connect(ctx)
}

// List returns all registered source names.
// The returned slice is a copy and safe to modify.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered sources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Close shuts down every registered source. Failures are collected; all
// sources are attempted regardless of individual errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, src := range r.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close source %q: %w", name, err)
		}
	}
	r.sources = make(map[string]Source)
	return firstErr
}
