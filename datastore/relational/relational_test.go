/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package relational_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/config"
	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/datastore/testmodels"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

func newAdapter(t *testing.T) *relational.Adapter {
	t.Helper()
	reg := registry.New()
	require.NoError(t, testmodels.Register(reg, testmodels.Options{}))
	reg.Seal()

	db, err := relational.Connect(config.DatabaseSettings{Type: relational.SqliteDbType, DSN: ":memory:"})
	require.NoError(t, err)

	adapter := relational.New(db, relational.SQLite, reg)
	t.Cleanup(func() { _ = adapter.Close() })
	require.NoError(t, adapter.Initialize(context.Background()))
	return adapter
}

func record(id, org string, active bool) *storagemodels.Record {
	return &storagemodels.Record{
		EntityType: testmodels.EntityType,
		EntityID:   id,
		Fields: map[string]any{
			"ratingSystemId":   id,
			"organizationName": org,
			"active":           active,
			"rank":             2,
			"levels":           []any{"bronze", "silver"},
		},
		Created: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCreateReadDelete(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t)

	require.NoError(t, adapter.Insert(ctx, record("123", "contoso", true), datastore.InsertOptions{}))

	got, err := adapter.Get(ctx, testmodels.EntityType, "123")
	require.NoError(t, err)
	assert.Equal(t, "123", got.EntityID)
	assert.Equal(t, "contoso", got.Fields["organizationName"])
	assert.Equal(t, true, got.Fields["active"])
	assert.Equal(t, float64(2), got.Fields["rank"])
	assert.Equal(t, []any{"bronze", "silver"}, got.Fields["levels"])
	assert.True(t, got.Created.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))

	err = adapter.Insert(ctx, record("123", "contoso", true), datastore.InsertOptions{})
	assert.True(t, errors.IsAlreadyExists(err), "got %v", err)

	updated := record("123", "fabrikam", false)
	updated.Created = time.Time{}
	require.NoError(t, adapter.Update(ctx, updated))

	got, err = adapter.Get(ctx, testmodels.EntityType, "123")
	require.NoError(t, err)
	assert.Equal(t, "fabrikam", got.Fields["organizationName"])
	assert.True(t, got.Created.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)), "update keeps creation time")

	require.NoError(t, adapter.Delete(ctx, got))

	_, err = adapter.Get(ctx, testmodels.EntityType, "123")
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(adapter.Delete(ctx, got)))
	assert.True(t, errors.IsNotFound(adapter.Update(ctx, got)))
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t)

	require.NoError(t, adapter.Insert(ctx, record("1", "A", true), datastore.InsertOptions{}))
	require.NoError(t, adapter.Insert(ctx, record("2", "A", false), datastore.InsertOptions{}))
	require.NoError(t, adapter.Insert(ctx, record("3", "B", true), datastore.InsertOptions{}))

	recs, err := adapter.Query(ctx, testmodels.EntityType, testmodels.ByOrganization{Name: "A"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = adapter.Query(ctx, testmodels.EntityType, testmodels.ByOrganization{Name: "C"})
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = adapter.Query(ctx, testmodels.EntityType, testmodels.ActiveByOrganization{Name: "A"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].EntityID)

	recs, err = adapter.Query(ctx, testmodels.EntityType, testmodels.ByOrganizations{Names: []string{"B", "C"}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "3", recs[0].EntityID)

	recs, err = adapter.Query(ctx, testmodels.EntityType, testmodels.ByOrganizations{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = adapter.Query(ctx, testmodels.EntityType, query.All{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{recs[0].EntityID, recs[1].EntityID, recs[2].EntityID})

	recs, err = adapter.Query(ctx, testmodels.EntityType, query.ByID{ID: "2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	_, err = adapter.Query(ctx, testmodels.EntityType, testmodels.Unknown{})
	assert.True(t, errors.IsConfigurationError(err))
}

func TestInitializeIsIdempotent(t *testing.T) {
	adapter := newAdapter(t)
	require.NoError(t, adapter.Initialize(context.Background()))

	tables, err := adapter.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"ratings"}, tables)
}

func TestConnectUnsupported(t *testing.T) {
	_, err := relational.Connect(config.DatabaseSettings{Type: "mysql", DSN: "root@/metadata"})
	assert.Error(t, err)
}

func TestInMemoryDatabaseOutlivesConnectionLifetime(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	require.NoError(t, testmodels.Register(reg, testmodels.Options{}))
	reg.Seal()

	db, err := relational.Connect(config.DatabaseSettings{
		Type:            relational.SqliteDbType,
		DSN:             ":memory:",
		MaxIdleConns:    5,
		ConnMaxLifetime: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	adapter := relational.New(db, relational.SQLite, reg)
	t.Cleanup(func() { _ = adapter.Close() })
	require.NoError(t, adapter.Initialize(ctx))

	require.NoError(t, adapter.Insert(ctx, record("123", "contoso", true), datastore.InsertOptions{}))
	time.Sleep(300 * time.Millisecond)

	got, err := adapter.Get(ctx, testmodels.EntityType, "123")
	require.NoError(t, err)
	assert.Equal(t, "contoso", got.Fields["organizationName"])
}
