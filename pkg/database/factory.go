package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DialectConstructor builds the dialect for a set of options.
type DialectConstructor func(opts Options) (Dialect, error)

// Factory resolves dialect names and caches one driver per distinct
// set of options. Construct one at start-up and pass it around.
type Factory struct {
	registry map[string]DialectConstructor
	drivers  map[string]*Driver
	mu       sync.RWMutex
}

// NewFactory creates an empty factory. Dialects are added with Register.
func NewFactory() *Factory {
	return &Factory{
		registry: make(map[string]DialectConstructor),
		drivers:  make(map[string]*Driver),
	}
}

// Register adds or replaces the constructor for name.
func (f *Factory) Register(name string, constructor DialectConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry[name] = constructor
}

// Unregister removes the constructor for name.
func (f *Factory) Unregister(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registry, name)
}

// IsRegistered reports whether a constructor exists for name.
func (f *Factory) IsRegistered(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.registry[name]
	return ok
}

// GetRegisteredTypes returns the registered names, sorted.
func (f *Factory) GetRegisteredTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.registry))
	for name := range f.registry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// DialectFor builds the dialect named by opts.Driver.
func (f *Factory) DialectFor(opts Options) (Dialect, error) {
	f.mu.RLock()
	constructor, ok := f.registry[opts.Driver]
	f.mu.RUnlock()

	if !ok {
		return nil, Errorf(KindConfiguration, "Factory", "unknown database type: %s (available types: %v)",
			opts.Driver, f.GetRegisteredTypes())
	}
	dialect, err := constructor(opts)
	if err != nil {
		return nil, NewError(KindConfiguration, "Factory", fmt.Errorf("failed to build %s dialect: %w", opts.Driver, err))
	}
	return dialect, nil
}

// Dialect builds the named dialect with default options.
func (f *Factory) Dialect(name string) (Dialect, error) {
	return f.DialectFor(Options{Driver: name})
}

// GetDriver returns the cached driver for opts, connecting a new one
// on first use.
func (f *Factory) GetDriver(ctx context.Context, opts Options) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	sig := opts.Signature()

	f.mu.RLock()
	d, ok := f.drivers[sig]
	f.mu.RUnlock()
	if ok {
		return d, nil
	}

	dialect, err := f.DialectFor(opts)
	if err != nil {
		return nil, err
	}
	d, err = Open(ctx, dialect, opts)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.drivers[sig]; ok {
		d.Close()
		return existing, nil
	}
	f.drivers[sig] = d
	return d, nil
}

// GetQuery returns a fresh query for the driver, or a detached query
// for the named dialect when d is nil.
func (f *Factory) GetQuery(name string, d *Driver) (*Query, error) {
	if d != nil {
		return d.GetQuery(true), nil
	}
	dialect, err := f.Dialect(name)
	if err != nil {
		return nil, err
	}
	return NewQuery(dialect), nil
}

// Close closes every cached driver and empties the cache.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var first error
	for sig, d := range f.drivers {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
		delete(f.drivers, sig)
	}
	return first
}
