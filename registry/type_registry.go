/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/storagemodels"
)

// Factory returns a new zero-value entity, typically a pointer to the entity struct.
type Factory func() storagemodels.Entity

// IDQueryFunc builds the fixed query that finds a record by id on backends without
// native point lookup.
type IDQueryFunc func(id string) query.Fixed

// NewEntity instantiates the zero value of entityType through its registered factory.
func (r *Registry) NewEntity(entityType storagemodels.EntityType) (storagemodels.Entity, error) {
	factory, err := Value[Factory](r, entityType, DimFactory)
	if err != nil {
		return nil, err
	}
	e := factory()
	if e == nil {
		return nil, errors.NewConfigurationError(entityType.String(), string(DimFactory), "factory returned nil")
	}
	return e, nil
}

// IDField returns the declared field carrying the identifier of entityType.
func (r *Registry) IDField(entityType storagemodels.EntityType) (string, error) {
	return Value[string](r, entityType, DimIDField)
}

// IDQuery returns the id fixed query builder of entityType, if one was registered.
func (r *Registry) IDQuery(entityType storagemodels.EntityType) (IDQueryFunc, bool, error) {
	return OptionalValue[IDQueryFunc](r, entityType, DimIDQuery)
}

// ColumnMap returns the field -> column map of entityType for backend b.
func (r *Registry) ColumnMap(entityType storagemodels.EntityType, b storagemodels.Backend) (map[string]string, error) {
	return Value[map[string]string](r, entityType, Columns(b))
}
