/*
Package registry holds the mapping configuration of every entity type.

A Registry is a two-key store: (entity type, dimension) -> value. Dimensions are either
shared by all backends or qualified by one:

	factory             Factory producing the zero-value entity
	idField             declared field carrying the identifier
	idQuery             IDQueryFunc for backends without point lookup
	<backend>.columns   map[string]string of field -> column ("" = codec)
	<backend>.codecs    map[string]codec.FieldCodec
	<backend>.table     table or collection name
	<backend>.partition partition template, fixed or with {field} macros
	<backend>.query     backend-specific fixed query translator

Entity modules describe themselves with a Declaration:

	reg := registry.New()
	err := reg.Declare(registry.Declaration{
	    Type:    "repositorymetadata",
	    IDField: "repositoryId",
	    New:     func() storagemodels.Entity { return &RepositoryMetadata{} },
	    Mappings: map[storagemodels.Backend]registry.Mapping{
	        storagemodels.BackendTable: {
	            Partition: "repository",
	            Columns:   map[string]string{"repositoryId": "repoid", "organizationName": "orgname"},
	            Query:     translateTable,
	        },
	    },
	})
	reg.Seal()

Declare validates every backend mapping against the entity's declared fields, so a
missing column surfaces at startup rather than on first use. After Seal the registry is
read-only and safe for concurrent lookups.
*/
package registry
