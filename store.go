/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metadatastore

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/metrics"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Store selects the adapter each entity type is persisted with: a default adapter plus
// per-type overrides. It is safe for concurrent use.
type Store struct {
	registry *registry.Registry
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu             sync.RWMutex
	defaultAdapter datastore.Adapter
	adapters       map[storagemodels.EntityType]datastore.Adapter
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger providers built on the store use.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the collectors providers built on the store record into.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithAdapter routes entityType to a instead of the default adapter.
func WithAdapter(entityType storagemodels.EntityType, a datastore.Adapter) StoreOption {
	return func(s *Store) { s.adapters[entityType] = a }
}

// NewStore creates a store whose entity types use defaultAdapter unless overridden. A nil
// defaultAdapter requires every entity type to be routed explicitly.
func NewStore(reg *registry.Registry, defaultAdapter datastore.Adapter, opts ...StoreOption) *Store {
	s := &Store{
		registry:       reg,
		logger:         zerolog.Nop(),
		defaultAdapter: defaultAdapter,
		adapters:       make(map[storagemodels.EntityType]datastore.Adapter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the mapping registry the store was built with.
func (s *Store) Registry() *registry.Registry { return s.registry }

// RegisterAdapter routes entityType to a. An entity type can be routed once.
func (s *Store) RegisterAdapter(entityType storagemodels.EntityType, a datastore.Adapter) error {
	if a == nil {
		return errors.NewValidationError("adapter", "adapter is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.adapters[entityType]; exists {
		return errors.NewConfigurationError(entityType.String(), "adapter", "adapter already registered")
	}
	s.adapters[entityType] = a
	return nil
}

// AdapterFor returns the adapter entityType is persisted with.
func (s *Store) AdapterFor(entityType storagemodels.EntityType) (datastore.Adapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.adapters[entityType]; ok {
		return a, nil
	}
	if s.defaultAdapter == nil {
		return nil, errors.NewConfigurationError(entityType.String(), "adapter", "no adapter registered and no default adapter")
	}
	return s.defaultAdapter, nil
}

// Adapters returns every distinct adapter of the store, default first.
func (s *Store) Adapters() []datastore.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []datastore.Adapter
	seen := make(map[datastore.Adapter]bool)
	add := func(a datastore.Adapter) {
		if a != nil && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	add(s.defaultAdapter)
	for _, t := range s.registry.EntityTypes() {
		add(s.adapters[t])
	}
	for _, a := range s.adapters {
		add(a)
	}
	return out
}

// Validate checks that every declared entity type has a mapping for the backend of the
// adapter it is routed to, and that every override names a declared entity type.
func (s *Store) Validate() error {
	var errs []error
	declared := s.registry.EntityTypes()

	s.mu.RLock()
	overrides := make([]storagemodels.EntityType, 0, len(s.adapters))
	for t := range s.adapters {
		overrides = append(overrides, t)
	}
	s.mu.RUnlock()
	sort.Slice(overrides, func(i, j int) bool { return overrides[i] < overrides[j] })
	for _, t := range overrides {
		if !slices.Contains(declared, t) {
			errs = append(errs, errors.NewConfigurationError(t.String(), "adapter", "override for undeclared entity type"))
		}
	}

	for _, t := range declared {
		a, err := s.AdapterFor(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !s.registry.Supports(t, a.Backend()) {
			errs = append(errs, errors.NewConfigurationError(t.String(), string(registry.Columns(a.Backend())),
				"entity type is routed to the %s backend but declares no mapping for it", a.Backend()))
		}
	}
	return stderrors.Join(errs...)
}

// Initialize prepares every adapter of the store.
func (s *Store) Initialize(ctx context.Context) error {
	for _, a := range s.Adapters() {
		if err := a.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize %s adapter: %w", a.Backend(), err)
		}
	}
	return nil
}

// Close releases the adapters that own connections.
func (s *Store) Close() error {
	var errs []error
	for _, a := range s.Adapters() {
		if c, ok := a.(datastore.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s adapter: %w", a.Backend(), err))
			}
		}
	}
	return stderrors.Join(errs...)
}
