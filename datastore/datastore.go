/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/storagemodels"
)

// InsertOptions tunes Insert.
type InsertOptions struct {
	// UniquenessVerified is set by providers that already ran the id fixed query for a
	// type the adapter cannot address by id. Adapters that cannot enforce uniqueness
	// themselves refuse the insert without it.
	UniquenessVerified bool
}

// Adapter is the contract every physical metadata store implements. Adapters persist
// generic records; typed entities are the concern of the provider layer.
type Adapter interface {
	// Backend names the storage model the adapter implements.
	Backend() storagemodels.Backend

	// Initialize prepares the backing store. It is idempotent.
	Initialize(ctx context.Context) error

	// SupportsPointQuery reports whether records of entityType can be addressed by id alone.
	SupportsPointQuery(entityType storagemodels.EntityType) bool

	// Get returns the record with the given id, or a NotFound error.
	Get(ctx context.Context, entityType storagemodels.EntityType, id string) (*storagemodels.Record, error)

	// Insert stores a new record, failing with AlreadyExists when the id is taken.
	Insert(ctx context.Context, rec *storagemodels.Record, opts InsertOptions) error

	// Update replaces an existing record, failing with NotFound when it does not exist.
	Update(ctx context.Context, rec *storagemodels.Record) error

	// Delete removes an existing record, failing with NotFound when it does not exist.
	Delete(ctx context.Context, rec *storagemodels.Record) error

	// Query runs a fixed query and returns the matching records in backend order.
	Query(ctx context.Context, entityType storagemodels.EntityType, q query.Fixed) ([]*storagemodels.Record, error)
}

// Closer is implemented by adapters that own connections.
type Closer interface {
	Close() error
}
