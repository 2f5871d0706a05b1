/*
Package ddb provides the DynamoDB table adapter of the metadata store.

Every record is one item keyed by a partition key (PK) and a row key (SK):

	PK          partition template of the entity type, e.g. "repository"
	SK          row key prefix + entity id, e.g. "token_ABC"
	EntityType  type discriminator, used as a filter on every query
	Created     record creation time (strfmt date-time)

Partition templates may reference fields with macros, which are expanded from the
record's values:

	"approval#{organizationName}"   // becomes "approval#contoso"

A template without macros is a fixed partition and records can be read by id with
GetItem. A derived partition cannot be computed from the id alone, so those types
have no point query and providers fall back to the type's id fixed query.

Fields that do not fit a flat attribute, such as lists, are written by codecs into
indexed columns before they reach the adapter.

Fixed queries translate to a TableQuery. The adapter renders it into a Query on the
partition, or a Scan when the partition is derived, and pages through every result with
the SDK paginators. Throttled pages are retried.
*/
package ddb
