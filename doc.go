/*
Package metadatastore persists typed entity metadata behind one contract, with the physical
store selected per deployment or per entity type: a DynamoDB table, a relational database
with a JSON payload column, or process memory.

The package follows a declare → validate → serve workflow:
  - Declare: every entity module registers its mappings on an explicit registry
  - Validate: Open checks every declared field against every backend's column map
  - Serve: providers serialize entities into records and drive the routed adapter

Basic Usage:

	reg := registry.New()
	if err := entities.RegisterAll(reg); err != nil {
	    log.Fatal(err)
	}

	cfg, _ := config.Load("metadata.yaml")
	store, err := metadatastore.Open(ctx, cfg, reg)
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()
	_ = store.Initialize(ctx)

	repos, _ := metadatastore.NewProvider[*repositorymetadata.RepositoryMetadata](store, repositorymetadata.EntityType)
	repo, err := repos.Get(ctx, "123")
	if errors.IsNotFound(err) {
	    // expected outcome, not a failure
	}

Providers fall back to the entity type's id query on backends that cannot address a record
by id alone; more than one match is reported as Ambiguous rather than resolved.
*/
package metadatastore
