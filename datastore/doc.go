/*
Package datastore defines the adapter contract of the metadata storage layer.

An Adapter persists storagemodels.Record values for any registered entity type:

	type Adapter interface {
	    Backend() storagemodels.Backend
	    Initialize(ctx context.Context) error
	    SupportsPointQuery(entityType storagemodels.EntityType) bool
	    Get(ctx context.Context, entityType storagemodels.EntityType, id string) (*storagemodels.Record, error)
	    Insert(ctx context.Context, rec *storagemodels.Record, opts InsertOptions) error
	    Update(ctx context.Context, rec *storagemodels.Record) error
	    Delete(ctx context.Context, rec *storagemodels.Record) error
	    Query(ctx context.Context, entityType storagemodels.EntityType, q query.Fixed) ([]*storagemodels.Record, error)
	}

Implementations:
  - ddb: DynamoDB partition/row-key table store
  - relational: gorm-backed generic table with a JSON payload column (postgres, sqlite)
  - memory: isolated in-process store

Delete takes the whole record because table stores may derive the partition key from
field values.
*/
package datastore
