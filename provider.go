/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metadatastore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/logging"
	"github.com/suparena/metadatastore/metrics"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Provider offers typed CRUD and fixed queries for one entity type over the adapter the
// store routes it to. Entity modules embed or wrap a Provider.
type Provider[T storagemodels.Entity] struct {
	entityType storagemodels.EntityType
	adapter    datastore.Adapter
	serializer *Serializer
	pointQuery bool
	idQuery    registry.IDQueryFunc
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewProvider creates the provider of entityType. It fails with a configuration error when
// the routed backend has no mapping for the type, when the factory does not produce a T, or
// when the adapter cannot address the type by id and no id query is declared.
func NewProvider[T storagemodels.Entity](store *Store, entityType storagemodels.EntityType) (*Provider[T], error) {
	a, err := store.AdapterFor(entityType)
	if err != nil {
		return nil, err
	}
	reg := store.Registry()
	b := a.Backend()
	if !reg.Supports(entityType, b) {
		return nil, errors.NewConfigurationError(entityType.String(), string(registry.Columns(b)),
			"no mapping declared for the %s backend", b)
	}

	zero, err := reg.NewEntity(entityType)
	if err != nil {
		return nil, err
	}
	if _, ok := zero.(T); !ok {
		var want T
		return nil, errors.NewConfigurationError(entityType.String(), string(registry.DimFactory),
			"factory produces %T, provider expects %T", zero, want)
	}

	p := &Provider[T]{
		entityType: entityType,
		adapter:    a,
		serializer: NewSerializer(reg, b),
		pointQuery: a.SupportsPointQuery(entityType),
		logger: logging.Component(store.logger, "provider").With().
			Str("entityType", entityType.String()).
			Str("backend", string(b)).
			Logger(),
		metrics: store.metrics,
	}
	if !p.pointQuery {
		idQuery, ok, err := reg.IDQuery(entityType)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewConfigurationError(entityType.String(), string(registry.DimIDQuery),
				"the %s backend cannot look up by id and no id query is declared", b)
		}
		p.idQuery = idQuery
	}
	return p, nil
}

// EntityType returns the entity type of the provider.
func (p *Provider[T]) EntityType() storagemodels.EntityType { return p.entityType }

// Backend returns the backend the provider persists to.
func (p *Provider[T]) Backend() storagemodels.Backend { return p.adapter.Backend() }

// SupportsPointQuery reports whether Get reads by id directly rather than through the id
// fixed query.
func (p *Provider[T]) SupportsPointQuery() bool { return p.pointQuery }

// Initialize prepares the backing store of the provider's adapter.
func (p *Provider[T]) Initialize(ctx context.Context) (err error) {
	defer p.observe("initialize", time.Now(), &err)
	return p.wrap("initialize", p.adapter.Initialize(ctx))
}

// Serialize converts entity into the generic record of the provider's backend.
func (p *Provider[T]) Serialize(entity T) (*storagemodels.Record, error) {
	return p.serializer.Serialize(p.entityType, entity)
}

// Deserialize converts a generic record of the provider's backend into an entity.
func (p *Provider[T]) Deserialize(rec *storagemodels.Record) (T, error) {
	var zero T
	e, err := p.serializer.Deserialize(p.entityType, rec)
	if err != nil {
		return zero, err
	}
	typed, ok := e.(T)
	if !ok {
		return zero, errors.NewConfigurationError(p.entityType.String(), string(registry.DimFactory),
			"factory produces %T, provider expects %T", e, zero)
	}
	return typed, nil
}

// Get returns the entity with the given id. It fails with NotFound when none exists and,
// on backends without point lookup, with Ambiguous when the id query matches more than one.
func (p *Provider[T]) Get(ctx context.Context, id string) (entity T, err error) {
	defer p.observe("get", time.Now(), &err)

	if id == "" {
		return entity, errors.NewValidationError("id", "identifier is required")
	}

	var rec *storagemodels.Record
	if p.pointQuery {
		rec, err = p.adapter.Get(ctx, p.entityType, id)
		if err != nil {
			return entity, p.wrap("get", err)
		}
	} else {
		records, err := p.lookup(ctx, id)
		if err != nil {
			return entity, err
		}
		switch len(records) {
		case 0:
			return entity, errors.NewNotFoundError(p.entityType.String(), id)
		case 1:
			rec = records[0]
		default:
			return entity, errors.NewAmbiguousError(p.entityType.String(), id, len(records))
		}
	}
	return p.Deserialize(rec)
}

// Create stores a new entity. It fails with AlreadyExists when the id is taken.
func (p *Provider[T]) Create(ctx context.Context, entity T) (err error) {
	defer p.observe("create", time.Now(), &err)

	rec, err := p.Serialize(entity)
	if err != nil {
		return err
	}

	var opts datastore.InsertOptions
	if !p.pointQuery {
		existing, err := p.lookup(ctx, rec.EntityID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errors.NewAlreadyExistsError(p.entityType.String(), rec.EntityID)
		}
		opts.UniquenessVerified = true
	}
	return p.wrap("create", p.adapter.Insert(ctx, rec, opts))
}

// Update replaces an existing entity. It fails with NotFound when it does not exist. The
// created timestamp is kept unless the entity carries its own.
func (p *Provider[T]) Update(ctx context.Context, entity T) (err error) {
	defer p.observe("update", time.Now(), &err)

	rec, err := p.Serialize(entity)
	if err != nil {
		return err
	}
	if ts, ok := any(entity).(storagemodels.Timestamped); !ok || ts.CreatedAt().IsZero() {
		rec.Created = time.Time{}
	}
	return p.wrap("update", p.adapter.Update(ctx, rec))
}

// Delete removes an existing entity. It fails with NotFound when it does not exist.
func (p *Provider[T]) Delete(ctx context.Context, entity T) (err error) {
	defer p.observe("delete", time.Now(), &err)

	rec, err := p.Serialize(entity)
	if err != nil {
		return err
	}
	return p.wrap("delete", p.adapter.Delete(ctx, rec))
}

// Query runs a fixed query. Results come back in backend order, which callers must not
// rely on.
func (p *Provider[T]) Query(ctx context.Context, q query.Fixed) (entities []T, err error) {
	defer p.observe("query", time.Now(), &err)

	if q == nil {
		return nil, errors.NewValidationError("query", "fixed query is required")
	}
	records, err := p.adapter.Query(ctx, p.entityType, q)
	if err != nil {
		return nil, p.wrap("query", err)
	}
	p.metrics.RecordQueryResults(p.entityType.String(), string(p.Backend()), len(records))

	for _, rec := range records {
		e, err := p.Deserialize(rec)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// QueryOne runs a fixed query expected to match at most one entity. It fails with
// NotFound on no match and Ambiguous on more than one.
func (p *Provider[T]) QueryOne(ctx context.Context, q query.Fixed) (T, error) {
	var zero T
	entities, err := p.Query(ctx, q)
	if err != nil {
		return zero, err
	}
	switch len(entities) {
	case 0:
		return zero, errors.NewNotFoundError(p.entityType.String(), query.Describe(q))
	case 1:
		return entities[0], nil
	}
	return zero, errors.NewAmbiguousError(p.entityType.String(), query.Describe(q), len(entities))
}

func (p *Provider[T]) lookup(ctx context.Context, id string) ([]*storagemodels.Record, error) {
	records, err := p.adapter.Query(ctx, p.entityType, p.idQuery(id))
	if err != nil {
		return nil, p.wrap("query", err)
	}
	return records, nil
}

func (p *Provider[T]) wrap(operation string, err error) error {
	return errors.NewBackendError(string(p.Backend()), operation, p.entityType.String(), err)
}

func (p *Provider[T]) observe(operation string, started time.Time, err *error) {
	p.metrics.RecordOperation(p.entityType.String(), string(p.Backend()), operation, started, *err)
	logging.Operation(p.logger, operation, started, *err, errors.IsNotFound)
}

// String describes the provider for logs.
func (p *Provider[T]) String() string {
	return fmt.Sprintf("provider(%s@%s)", p.entityType, p.Backend())
}
