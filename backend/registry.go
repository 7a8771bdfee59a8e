package backend

import (
	"fmt"
	"slices"
	"sync"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)

	// Priority order for Default (first that opens wins).
	backendPriority = []string{BackendVulkan, BackendNoop}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the named backend.
func Open(name string, cfg Config) (Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory(cfg)
}

// Default opens the best available backend by priority, falling back to
// any other registered backend. Failures are logged to cfg.Logger and the
// next candidate is tried.
func Default(cfg Config) (Device, string, error) {
	registryMu.RLock()
	names := make([]string, 0, len(factories))
	for _, name := range backendPriority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	for _, name := range sortedKeys(factories) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	registryMu.RUnlock()

	for _, name := range names {
		dev, err := Open(name, cfg)
		if err == nil {
			return dev, name, nil
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("backend: open failed, trying next", "backend", name, "err", err)
		}
	}
	return nil, "", ErrBackendNotAvailable
}

func sortedKeys(m map[string]Factory) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
