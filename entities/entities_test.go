/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entities_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/config"
	"github.com/suparena/metadatastore/entities"
	"github.com/suparena/metadatastore/entities/repositorymetadata"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

func TestRegisterAll(t *testing.T) {
	reg := registry.New()
	require.NoError(t, entities.RegisterAll(reg))
	require.NoError(t, reg.ValidateAll())

	types := reg.EntityTypes()
	assert.Len(t, types, len(entities.Declarations()))
	for _, et := range types {
		for _, b := range storagemodels.Backends {
			assert.True(t, reg.Supports(et, b), "%s on %s", et, b)
		}
	}

	err := entities.RegisterAll(reg)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestNewProviders(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	require.NoError(t, entities.RegisterAll(reg))

	store, err := metadatastore.Open(ctx, config.Default(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	providers, err := entities.NewProviders(store)
	require.NoError(t, err)
	require.NoError(t, providers.Initialize(ctx))

	m := &repositorymetadata.RepositoryMetadata{RepositoryID: "123", OrganizationName: "contoso"}
	require.NoError(t, providers.RepositoryMetadata.Create(ctx, m))
	got, err := providers.RepositoryMetadata.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "contoso", got.OrganizationName)

	assert.Equal(t, storagemodels.BackendMemory, providers.TeamJoinRequests.Backend())
	assert.True(t, providers.TeamJoinRequests.SupportsPointQuery())
}
