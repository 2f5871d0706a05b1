//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metadatastore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/config"
	"github.com/suparena/metadatastore/entities"
	"github.com/suparena/metadatastore/entities/repositorymetadata"
	"github.com/suparena/metadatastore/entities/teamjoin"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// integrationConfig loads the environment configuration for backend, skipping the test
// when the backend is not reachable.
func integrationConfig(t *testing.T, backend storagemodels.Backend) *config.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, err := config.Load(os.Getenv("METADATA_CONFIG"))
	require.NoError(t, err)
	cfg.Backend = backend
	cfg.Overrides = nil

	switch backend {
	case storagemodels.BackendTable:
		if cfg.Table.Endpoint == "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
			t.Skip("METADATA_TABLE_ENDPOINT or AWS credentials not set, skipping integration test")
		}
		cfg.Table.CreateTables = true
		cfg.Table.TablePrefix = fmt.Sprintf("it%d_", time.Now().UnixNano())
	case storagemodels.BackendRelational:
		if cfg.Database.DSN == "" {
			t.Skip("METADATA_DATABASE_DSN not set, skipping integration test")
		}
		if cfg.Database.Type == "" {
			cfg.Database.Type = "postgres"
		}
	}
	return cfg
}

func openProviders(t *testing.T, backend storagemodels.Backend) *entities.Providers {
	t.Helper()
	ctx := context.Background()

	reg := registry.New()
	require.NoError(t, entities.RegisterAll(reg))
	store, err := metadatastore.Open(ctx, integrationConfig(t, backend), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	providers, err := entities.NewProviders(store)
	require.NoError(t, err)
	require.NoError(t, providers.Initialize(ctx))
	return providers
}

func integrationBackends() []storagemodels.Backend {
	return []storagemodels.Backend{storagemodels.BackendTable, storagemodels.BackendRelational}
}

func TestIntegrationRepositoryMetadata(t *testing.T) {
	for _, backend := range integrationBackends() {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			p := openProviders(t, backend).RepositoryMetadata

			org := fmt.Sprintf("org%d", time.Now().UnixNano())
			id := org + "-1"
			m := &repositorymetadata.RepositoryMetadata{
				RepositoryID:     id,
				RepositoryName:   "service",
				OrganizationName: org,
				InitialTeamPermissions: []repositorymetadata.TeamPermission{
					{TeamID: "1", Permission: "admin"},
					{TeamID: "2", Permission: "pull"},
				},
			}
			require.NoError(t, p.Create(ctx, m))
			t.Cleanup(func() { _ = p.Delete(ctx, m) })

			got, err := p.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, m.InitialTeamPermissions, got.InitialTeamPermissions)

			found, err := p.QueryByOrganizationName(ctx, org)
			require.NoError(t, err)
			assert.Len(t, found, 1)

			err = p.Create(ctx, m)
			assert.True(t, errors.IsAlreadyExists(err))
		})
	}
}

func TestIntegrationTeamJoinRequests(t *testing.T) {
	for _, backend := range integrationBackends() {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			p := openProviders(t, backend).TeamJoinRequests

			team := fmt.Sprintf("team%d", time.Now().UnixNano())
			r := &teamjoin.Request{OrganizationName: "contoso", TeamID: team, CorporateID: "c-1"}
			require.NoError(t, p.Create(ctx, r))
			t.Cleanup(func() { _ = p.Delete(ctx, r) })

			open, err := p.QueryOpenByTeamIDs(ctx, []string{team})
			require.NoError(t, err)
			require.Len(t, open, 1)

			_, err = p.Decide(ctx, r.ApprovalID, teamjoin.DecisionApprove, "", "c-2")
			require.NoError(t, err)

			open, err = p.QueryOpenByTeamIDs(ctx, []string{team})
			require.NoError(t, err)
			assert.Empty(t, open)
		})
	}
}
