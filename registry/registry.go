/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"
	"sync"

	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/storagemodels"
)

// Dimension names one aspect of an entity type's configuration.
type Dimension string

// Shared dimensions.
const (
	// DimFactory holds a Factory producing the zero value of the entity.
	DimFactory Dimension = "factory"
	// DimIDField holds the declared field name carrying the identifier.
	DimIDField Dimension = "idField"
	// DimIDQuery holds an IDQueryFunc used when a backend cannot look up by id directly.
	DimIDQuery Dimension = "idQuery"
)

// Columns is the field -> column map dimension of a backend. A field mapped to ""
// is handled by a codec instead of a 1:1 column.
func Columns(b storagemodels.Backend) Dimension { return dim(b, "columns") }

// TableName is the table or collection name dimension of a backend.
func TableName(b storagemodels.Backend) Dimension { return dim(b, "table") }

// Partition is the partition key template dimension of a backend.
func Partition(b storagemodels.Backend) Dimension { return dim(b, "partition") }

// RowKeyPrefix is the row key prefix dimension of a backend.
func RowKeyPrefix(b storagemodels.Backend) Dimension { return dim(b, "rowKeyPrefix") }

// IDColumn is the identifier column name dimension of a backend.
func IDColumn(b storagemodels.Backend) Dimension { return dim(b, "idColumn") }

// TypeValue is the type discriminator value dimension of a backend.
func TypeValue(b storagemodels.Backend) Dimension { return dim(b, "typeValue") }

// QueryTranslator is the fixed query translation function dimension of a backend.
func QueryTranslator(b storagemodels.Backend) Dimension { return dim(b, "query") }

// Codecs is the field -> codec.FieldCodec dimension of a backend.
func Codecs(b storagemodels.Backend) Dimension { return dim(b, "codecs") }

func dim(b storagemodels.Backend, aspect string) Dimension {
	return Dimension(string(b) + "." + aspect)
}

type key struct {
	entityType storagemodels.EntityType
	dimension  Dimension
}

// Registry maps (entity type, dimension) to mapping values. It is populated once at
// startup, sealed, and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	values map[key]any
	types  map[storagemodels.EntityType]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		values: make(map[key]any),
		types:  make(map[storagemodels.EntityType]struct{}),
	}
}

// Register stores value under (entityType, dimension). Each key may be written once, and
// nothing may be written after Seal.
func (r *Registry) Register(entityType storagemodels.EntityType, dimension Dimension, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return errors.NewConfigurationError(entityType.String(), string(dimension), "registry is sealed")
	}
	k := key{entityType, dimension}
	if _, exists := r.values[k]; exists {
		return errors.NewConfigurationError(entityType.String(), string(dimension), "already registered")
	}
	r.values[k] = value
	r.types[entityType] = struct{}{}
	return nil
}

// Lookup retrieves the value under (entityType, dimension). A missing value is a
// configuration error when required, and (nil, nil) otherwise.
func (r *Registry) Lookup(entityType storagemodels.EntityType, dimension Dimension, required bool) (any, error) {
	r.mu.RLock()
	v, ok := r.values[key{entityType, dimension}]
	r.mu.RUnlock()

	if !ok {
		if required {
			return nil, errors.NewConfigurationError(entityType.String(), string(dimension), "no mapping registered")
		}
		return nil, nil
	}
	return v, nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// EntityTypes returns every entity type with at least one registered dimension, sorted.
func (r *Registry) EntityTypes() []storagemodels.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]storagemodels.EntityType, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Backends returns the backends for which entityType has a column map.
func (r *Registry) Backends(entityType storagemodels.EntityType) []storagemodels.Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []storagemodels.Backend
	for _, b := range storagemodels.Backends {
		if _, ok := r.values[key{entityType, Columns(b)}]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Supports reports whether entityType is mapped for backend b.
func (r *Registry) Supports(entityType storagemodels.EntityType, b storagemodels.Backend) bool {
	v, _ := r.Lookup(entityType, Columns(b), false)
	return v != nil
}

// Value looks up a required value and asserts its type.
func Value[V any](r *Registry, entityType storagemodels.EntityType, dimension Dimension) (V, error) {
	var zero V
	raw, err := r.Lookup(entityType, dimension, true)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(V)
	if !ok {
		return zero, errors.NewConfigurationError(entityType.String(), string(dimension),
			"registered value is %T, expected %T", raw, zero)
	}
	return v, nil
}

// OptionalValue looks up an optional value and asserts its type. The boolean reports
// whether a value was registered.
func OptionalValue[V any](r *Registry, entityType storagemodels.EntityType, dimension Dimension) (V, bool, error) {
	var zero V
	raw, _ := r.Lookup(entityType, dimension, false)
	if raw == nil {
		return zero, false, nil
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false, errors.NewConfigurationError(entityType.String(), string(dimension),
			"registered value is %T, expected %T", raw, zero)
	}
	return v, true, nil
}
