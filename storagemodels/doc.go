/*
Package storagemodels defines the data structures shared by providers and adapters.

Key Types:

Record:
The backend-agnostic unit of storage. Providers serialize typed entities into records and
adapters persist records:

	rec := &Record{
	    EntityType: "repositorymetadata",
	    EntityID:   "123",
	    Fields: map[string]any{
	        "orgname": "contoso",
	    },
	    Created: time.Now().UTC(),
	}

Entity:
Typed entity objects implement Entity and declare their persisted fields with the
metadata struct tag:

	type RepositoryMetadata struct {
	    RepositoryID     string `metadata:"repositoryId"`
	    OrganizationName string `metadata:"organizationName"`
	    Cached           bool   `metadata:"cached,transient"`
	}

DeclaredFields and FieldValues read those tags; the registry validates every declared
field against the column map of every backend the entity type supports.
*/
package storagemodels
