/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package entitytest opens stores over every backend for entity module tests.
package entitytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/config"
	"github.com/suparena/metadatastore/datastore"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/ddb/ddbtest"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/registry"
)

// Backend opens one adapter kind over a sealed registry.
type Backend struct {
	Name string
	Open func(t testing.TB, reg *registry.Registry) datastore.Adapter
}

// Backends returns the memory adapter, the table adapter over an in-process fake and the
// relational adapter over an in-memory SQLite database.
func Backends() []Backend {
	return []Backend{
		{
			Name: "memory",
			Open: func(t testing.TB, reg *registry.Registry) datastore.Adapter {
				return memory.New(reg)
			},
		},
		{
			Name: "table",
			Open: func(t testing.TB, reg *registry.Registry) datastore.Adapter {
				return ddb.New(ddbtest.New(), reg, ddb.WithCreateTables(true))
			},
		},
		{
			Name: "relational",
			Open: func(t testing.TB, reg *registry.Registry) datastore.Adapter {
				db, err := relational.Connect(config.DatabaseSettings{Type: relational.SqliteDbType, DSN: ":memory:"})
				require.NoError(t, err)
				a := relational.New(db, relational.SQLite, reg)
				t.Cleanup(func() { _ = a.Close() })
				return a
			},
		},
	}
}

// Open declares decls, opens b and returns an initialized store routing every type to it.
func Open(t testing.TB, b Backend, decls ...registry.Declaration) *metadatastore.Store {
	t.Helper()
	reg := registry.New()
	for _, d := range decls {
		require.NoError(t, reg.Declare(d))
	}
	reg.Seal()

	store := metadatastore.NewStore(reg, b.Open(t, reg))
	require.NoError(t, store.Validate())
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

// Each runs fn in a subtest per backend with a fresh store.
func Each(t *testing.T, fn func(t *testing.T, store *metadatastore.Store), decls ...registry.Declaration) {
	for _, b := range Backends() {
		t.Run(b.Name, func(t *testing.T) {
			fn(t, Open(t, b, decls...))
		})
	}
}
