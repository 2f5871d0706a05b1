/*
Package query defines the fixed query descriptors understood by every backend.

A fixed query is a named, parameterized query kind with no free-form filter
expressiveness. Entity modules declare one descriptor type per supported kind:

	type ByOrganizationID struct {
	    OrganizationID string
	}

	func (ByOrganizationID) Kind() query.Kind { return "repositorymetadata.byOrganizationId" }

Each backend registers one translation function per entity type that type-switches on the
descriptor and produces the backend's native query. Unknown descriptors must be rejected
with Unsupported, a configuration error, so gaps surface in tests rather than production.
*/
package query
