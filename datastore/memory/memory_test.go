/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/testmodels"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, testmodels.Register(reg, testmodels.Options{}))
	reg.Seal()
	return reg
}

func record(id, org string) *storagemodels.Record {
	return &storagemodels.Record{
		EntityType: testmodels.EntityType,
		EntityID:   id,
		Fields: map[string]any{
			"ratingSystemId":   id,
			"organizationName": org,
			"levels":           []string{"bronze"},
		},
	}
}

func TestMemoryAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		adapter := memory.New(newRegistry(t))

		require.NoError(t, adapter.Insert(ctx, record("123", "contoso"), datastore.InsertOptions{}))

		got, err := adapter.Get(ctx, testmodels.EntityType, "123")
		require.NoError(t, err)
		assert.Equal(t, "contoso", got.Fields["organizationName"])
		assert.False(t, got.Created.IsZero())

		err = adapter.Insert(ctx, record("123", "contoso"), datastore.InsertOptions{})
		assert.True(t, errors.IsAlreadyExists(err))

		require.NoError(t, adapter.Update(ctx, record("123", "fabrikam")))
		got, err = adapter.Get(ctx, testmodels.EntityType, "123")
		require.NoError(t, err)
		assert.Equal(t, "fabrikam", got.Fields["organizationName"])

		require.NoError(t, adapter.Delete(ctx, record("123", "")))
		_, err = adapter.Get(ctx, testmodels.EntityType, "123")
		assert.True(t, errors.IsNotFound(err))

		assert.True(t, errors.IsNotFound(adapter.Delete(ctx, record("123", ""))))
		assert.True(t, errors.IsNotFound(adapter.Update(ctx, record("123", ""))))
	})

	t.Run("QueryKeepsInsertionOrder", func(t *testing.T) {
		adapter := memory.New(newRegistry(t))
		for i, org := range []string{"A", "B", "A", "A"} {
			require.NoError(t, adapter.Insert(ctx, record(fmt.Sprint(i), org), datastore.InsertOptions{}))
		}
		require.NoError(t, adapter.Delete(ctx, record("2", "")))

		recs, err := adapter.Query(ctx, testmodels.EntityType, testmodels.ByOrganization{Name: "A"})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "0", recs[0].EntityID)
		assert.Equal(t, "3", recs[1].EntityID)

		got, err := adapter.Get(ctx, testmodels.EntityType, "3")
		require.NoError(t, err)
		assert.Equal(t, "3", got.EntityID)

		recs, err = adapter.Query(ctx, testmodels.EntityType, query.All{})
		require.NoError(t, err)
		assert.Len(t, recs, 3)

		_, err = adapter.Query(ctx, testmodels.EntityType, testmodels.Unknown{})
		assert.True(t, errors.IsConfigurationError(err))
	})

	t.Run("RecordsAreCopied", func(t *testing.T) {
		adapter := memory.New(newRegistry(t))
		rec := record("1", "A")
		require.NoError(t, adapter.Insert(ctx, rec, datastore.InsertOptions{}))

		rec.Fields["organizationName"] = "mutated"
		rec.Fields["levels"].([]string)[0] = "mutated"

		got, err := adapter.Get(ctx, testmodels.EntityType, "1")
		require.NoError(t, err)
		assert.Equal(t, "A", got.Fields["organizationName"])
		assert.Equal(t, []string{"bronze"}, got.Fields["levels"])

		got.Fields["organizationName"] = "mutated again"
		again, err := adapter.Get(ctx, testmodels.EntityType, "1")
		require.NoError(t, err)
		assert.Equal(t, "A", again.Fields["organizationName"])
	})

	t.Run("InstancesAreIsolated", func(t *testing.T) {
		reg := newRegistry(t)
		first := memory.New(reg)
		second := memory.New(reg)

		require.NoError(t, first.Insert(ctx, record("1", "A"), datastore.InsertOptions{}))

		_, err := second.Get(ctx, testmodels.EntityType, "1")
		assert.True(t, errors.IsNotFound(err))
		assert.Equal(t, 1, first.Count(testmodels.EntityType))
		assert.Equal(t, 0, second.Count(testmodels.EntityType))
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		boom := fmt.Errorf("boom")
		adapter := memory.New(newRegistry(t), memory.WithFailure("insert", boom))

		err := adapter.Insert(ctx, record("1", "A"), datastore.InsertOptions{})
		assert.Equal(t, boom, err)
	})

	t.Run("ConcurrentInserts", func(t *testing.T) {
		adapter := memory.New(newRegistry(t))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, adapter.Insert(ctx, record(fmt.Sprint(i), "A"), datastore.InsertOptions{}))
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 50, adapter.Count(testmodels.EntityType))

		adapter.Clear()
		assert.Equal(t, 0, adapter.Count(testmodels.EntityType))
	})
}
