/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an isolated in-process metadata adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Predicate selects records for a fixed query. A nil Predicate matches every record.
type Predicate func(rec *storagemodels.Record) bool

// Translator maps a fixed query descriptor onto a Predicate for one entity type.
type Translator func(q query.Fixed) (Predicate, error)

var _ datastore.Adapter = (*Adapter)(nil)

type collection struct {
	records []*storagemodels.Record
	index   map[string]int
}

// Adapter keeps records per entity type in insertion order. Instances share nothing.
type Adapter struct {
	mu          sync.RWMutex
	registry    *registry.Registry
	collections map[storagemodels.EntityType]*collection
	logger      zerolog.Logger
	failures    map[string]error
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Adapter) { a.logger = logger.With().Str("component", "memory").Logger() }
}

// WithFailure makes every call of operation ("get", "insert", "update", "delete",
// "query") return err. Useful for exercising provider error paths.
func WithFailure(operation string, err error) Option {
	return func(a *Adapter) { a.failures[operation] = err }
}

// New creates an empty adapter bound to reg.
func New(reg *registry.Registry, opts ...Option) *Adapter {
	a := &Adapter{
		registry:    reg,
		collections: make(map[storagemodels.EntityType]*collection),
		logger:      zerolog.Nop(),
		failures:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backend implements datastore.Adapter.
func (a *Adapter) Backend() storagemodels.Backend { return storagemodels.BackendMemory }

// Initialize implements datastore.Adapter. There is nothing to prepare.
func (a *Adapter) Initialize(ctx context.Context) error { return nil }

// SupportsPointQuery implements datastore.Adapter. Every record is indexed by id.
func (a *Adapter) SupportsPointQuery(storagemodels.EntityType) bool { return true }

// Get implements datastore.Adapter.
func (a *Adapter) Get(ctx context.Context, entityType storagemodels.EntityType, id string) (*storagemodels.Record, error) {
	if err := a.failure("get"); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	c, ok := a.collections[entityType]
	if !ok {
		return nil, errors.NewNotFoundError(entityType.String(), id)
	}
	i, ok := c.index[id]
	if !ok {
		return nil, errors.NewNotFoundError(entityType.String(), id)
	}
	return c.records[i].Clone(), nil
}

// Insert implements datastore.Adapter.
func (a *Adapter) Insert(ctx context.Context, rec *storagemodels.Record, _ datastore.InsertOptions) error {
	if err := a.failure("insert"); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c := a.collection(rec.EntityType)
	if _, exists := c.index[rec.EntityID]; exists {
		return errors.NewAlreadyExistsError(rec.EntityType.String(), rec.EntityID)
	}
	stored := rec.Clone()
	if stored.Created.IsZero() {
		stored.Created = time.Now().UTC()
	}
	c.index[rec.EntityID] = len(c.records)
	c.records = append(c.records, stored)

	a.logger.Debug().Str("entityType", rec.EntityType.String()).Str("id", rec.EntityID).Msg("inserted record")
	return nil
}

// Update implements datastore.Adapter. The record keeps its insertion position.
func (a *Adapter) Update(ctx context.Context, rec *storagemodels.Record) error {
	if err := a.failure("update"); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.collections[rec.EntityType]
	if !ok {
		return errors.NewNotFoundError(rec.EntityType.String(), rec.EntityID)
	}
	i, ok := c.index[rec.EntityID]
	if !ok {
		return errors.NewNotFoundError(rec.EntityType.String(), rec.EntityID)
	}
	stored := rec.Clone()
	if stored.Created.IsZero() {
		stored.Created = c.records[i].Created
	}
	c.records[i] = stored
	return nil
}

// Delete implements datastore.Adapter.
func (a *Adapter) Delete(ctx context.Context, rec *storagemodels.Record) error {
	if err := a.failure("delete"); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.collections[rec.EntityType]
	if !ok {
		return errors.NewNotFoundError(rec.EntityType.String(), rec.EntityID)
	}
	i, ok := c.index[rec.EntityID]
	if !ok {
		return errors.NewNotFoundError(rec.EntityType.String(), rec.EntityID)
	}

	c.records = append(c.records[:i], c.records[i+1:]...)
	delete(c.index, rec.EntityID)
	for j := i; j < len(c.records); j++ {
		c.index[c.records[j].EntityID] = j
	}
	return nil
}

// Query implements datastore.Adapter. Results are in insertion order.
func (a *Adapter) Query(ctx context.Context, entityType storagemodels.EntityType, q query.Fixed) ([]*storagemodels.Record, error) {
	if err := a.failure("query"); err != nil {
		return nil, err
	}
	translate, err := TranslatorFor(a.registry, entityType)
	if err != nil {
		return nil, err
	}
	match, err := translate(q)
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	c, ok := a.collections[entityType]
	if !ok {
		return nil, nil
	}
	var out []*storagemodels.Record
	for _, rec := range c.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if match == nil || match(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Count returns the number of records stored for entityType.
func (a *Adapter) Count(entityType storagemodels.EntityType) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if c, ok := a.collections[entityType]; ok {
		return len(c.records)
	}
	return 0
}

// Clear removes all records of every type.
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collections = make(map[storagemodels.EntityType]*collection)
}

// TranslatorFor returns the memory translator registered for entityType.
func TranslatorFor(reg *registry.Registry, entityType storagemodels.EntityType) (Translator, error) {
	raw, err := reg.Lookup(entityType, registry.QueryTranslator(storagemodels.BackendMemory), true)
	if err != nil {
		return nil, err
	}
	switch fn := raw.(type) {
	case Translator:
		return fn, nil
	case func(query.Fixed) (Predicate, error):
		return fn, nil
	}
	return nil, errors.NewConfigurationError(entityType.String(), string(registry.QueryTranslator(storagemodels.BackendMemory)),
		"registered value is %T, expected memory.Translator", raw)
}

func (a *Adapter) collection(entityType storagemodels.EntityType) *collection {
	c, ok := a.collections[entityType]
	if !ok {
		c = &collection{index: make(map[string]int)}
		a.collections[entityType] = c
	}
	return c
}

func (a *Adapter) failure(operation string) error {
	return a.failures[operation]
}

func validateRecord(rec *storagemodels.Record) error {
	if rec == nil {
		return errors.NewValidationError("record", "record is nil")
	}
	if rec.EntityType == "" {
		return errors.NewValidationError("entityType", "entity type is required")
	}
	if rec.EntityID == "" {
		return errors.NewValidationError("entityId", "entity id is required")
	}
	return nil
}
