/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

type widget struct {
	ID    string   `metadata:"widgetId"`
	Org   string   `metadata:"organizationName"`
	Tags  []string `metadata:"tags"`
	Dirty bool     `metadata:"dirty,transient"`
}

func (w *widget) EntityID() string { return w.ID }

const widgetType storagemodels.EntityType = "widget"

func translate(t storagemodels.EntityType, q query.Fixed) (any, error) {
	return nil, query.Unsupported(t, storagemodels.BackendMemory, q)
}

func widgetDeclaration() registry.Declaration {
	return registry.Declaration{
		Type:    widgetType,
		IDField: "widgetId",
		New:     func() storagemodels.Entity { return &widget{} },
		IDQuery: func(id string) query.Fixed { return query.ByID{ID: id} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:     "widgets",
				Partition: "widget",
				Columns: map[string]string{
					"widgetId":         "wid",
					"organizationName": "orgname",
					"tags":             "",
				},
				Codecs: map[string]codec.FieldCodec{"tags": codec.Strings("tagsCount", "tag%d")},
				Query:  translate,
			},
			storagemodels.BackendMemory: {
				Columns: map[string]string{
					"widgetId":         "widgetId",
					"organizationName": "organizationName",
					"tags":             "tags",
				},
				Query: translate,
			},
		},
	}
}

func TestRegisterLookup(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(widgetType, registry.TableName(storagemodels.BackendTable), "widgets"))

	v, err := reg.Lookup(widgetType, registry.TableName(storagemodels.BackendTable), true)
	require.NoError(t, err)
	assert.Equal(t, "widgets", v)

	v, err = reg.Lookup(widgetType, registry.Partition(storagemodels.BackendTable), false)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = reg.Lookup(widgetType, registry.Partition(storagemodels.BackendTable), true)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "table.partition")
}

func TestRegisterWriteOnce(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(widgetType, registry.DimIDField, "widgetId"))

	err := reg.Register(widgetType, registry.DimIDField, "other")
	assert.True(t, errors.IsConfigurationError(err))

	v, err := registry.Value[string](reg, widgetType, registry.DimIDField)
	require.NoError(t, err)
	assert.Equal(t, "widgetId", v)
}

func TestSeal(t *testing.T) {
	reg := registry.New()
	reg.Seal()
	assert.True(t, reg.Sealed())

	err := reg.Register(widgetType, registry.DimIDField, "widgetId")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestValueTypeMismatch(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(widgetType, registry.DimIDField, 42))

	_, err := registry.Value[string](reg, widgetType, registry.DimIDField)
	assert.True(t, errors.IsConfigurationError(err))

	_, ok, err := registry.OptionalValue[string](reg, widgetType, registry.DimIDField)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestValidateMappings(t *testing.T) {
	reg := registry.New()
	dim := registry.Columns(storagemodels.BackendTable)
	require.NoError(t, reg.Register(widgetType, dim, map[string]string{
		"widgetId": "wid",
		"tags":     "",
	}))

	t.Run("codec mapped field counts as present", func(t *testing.T) {
		err := reg.ValidateMappings(widgetType, dim, []string{"widgetId", "tags"}, nil)
		assert.NoError(t, err)
	})

	t.Run("missing fields are aggregated", func(t *testing.T) {
		err := reg.ValidateMappings(widgetType, dim, []string{"widgetId", "organizationName", "color"}, nil)
		require.Error(t, err)
		assert.True(t, errors.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "organizationName, color")
	})

	t.Run("exempt fields are skipped", func(t *testing.T) {
		err := reg.ValidateMappings(widgetType, dim, []string{"widgetId", "organizationName"}, []string{"organizationName"})
		assert.NoError(t, err)
	})

	t.Run("unregistered dimension", func(t *testing.T) {
		err := reg.ValidateMappings(widgetType, registry.Columns(storagemodels.BackendRelational), []string{"widgetId"}, nil)
		assert.True(t, errors.IsConfigurationError(err))
	})
}

func TestDeclare(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Declare(widgetDeclaration()))
	reg.Seal()

	assert.Equal(t, []storagemodels.EntityType{widgetType}, reg.EntityTypes())
	assert.Equal(t, []storagemodels.Backend{storagemodels.BackendTable, storagemodels.BackendMemory}, reg.Backends(widgetType))
	assert.True(t, reg.Supports(widgetType, storagemodels.BackendMemory))
	assert.False(t, reg.Supports(widgetType, storagemodels.BackendRelational))

	e, err := reg.NewEntity(widgetType)
	require.NoError(t, err)
	assert.IsType(t, &widget{}, e)

	typeValue, err := registry.Value[string](reg, widgetType, registry.TypeValue(storagemodels.BackendTable))
	require.NoError(t, err)
	assert.Equal(t, "widget", typeValue)

	idQuery, ok, err := reg.IDQuery(widgetType)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, query.ByID{ID: "7"}, idQuery("7"))

	require.NoError(t, reg.ValidateAll())
}

func TestDeclareRejectsIncompleteMappings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *registry.Declaration)
		want   string
	}{
		{
			name: "missing column",
			mutate: func(d *registry.Declaration) {
				m := d.Mappings[storagemodels.BackendMemory]
				m.Columns = map[string]string{"widgetId": "widgetId", "tags": "tags"}
				d.Mappings[storagemodels.BackendMemory] = m
			},
			want: "organizationName",
		},
		{
			name: "codec field without codec",
			mutate: func(d *registry.Declaration) {
				m := d.Mappings[storagemodels.BackendTable]
				m.Codecs = nil
				d.Mappings[storagemodels.BackendTable] = m
			},
			want: "has no codec",
		},
		{
			name: "undeclared field",
			mutate: func(d *registry.Declaration) {
				d.Mappings[storagemodels.BackendMemory].Columns["color"] = "color"
			},
			want: "undeclared field",
		},
		{
			name: "duplicate column",
			mutate: func(d *registry.Declaration) {
				d.Mappings[storagemodels.BackendMemory].Columns["organizationName"] = "tags"
			},
			want: "both map to column",
		},
		{
			name: "transient id field",
			mutate: func(d *registry.Declaration) {
				d.IDField = "dirty"
			},
			want: "not a declared field",
		},
		{
			name: "unknown backend",
			mutate: func(d *registry.Declaration) {
				d.Mappings["blob"] = registry.Mapping{Columns: map[string]string{}, Query: translate}
			},
			want: "unknown backend",
		},
		{
			name: "missing translator",
			mutate: func(d *registry.Declaration) {
				m := d.Mappings[storagemodels.BackendMemory]
				m.Query = nil
				d.Mappings[storagemodels.BackendMemory] = m
			},
			want: "memory.query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := widgetDeclaration()
			tt.mutate(&d)

			err := registry.New().Declare(d)
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDescribe(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Declare(widgetDeclaration()))

	d, err := reg.Describe(widgetType)
	require.NoError(t, err)
	assert.Equal(t, "widgetId", d.IDField)
	assert.True(t, d.IDQuery)
	require.Len(t, d.Backends, 2)

	table := d.Backends[0]
	assert.Equal(t, storagemodels.BackendTable, table.Backend)
	assert.Equal(t, "widgets", table.Table)
	assert.Equal(t, "widget", table.Partition)
	assert.Equal(t, "widget", table.TypeValue)
	assert.Equal(t, []string{"tags"}, table.Codecs)
	assert.Equal(t, "wid", table.Columns["widgetId"])

	memory := d.Backends[1]
	assert.Equal(t, storagemodels.BackendMemory, memory.Backend)
	assert.Empty(t, memory.Table)
	assert.Empty(t, memory.Codecs)

	all, err := reg.DescribeAll()
	require.NoError(t, err)
	assert.Equal(t, []registry.Description{d}, all)

	_, err = reg.Describe("gadget")
	assert.True(t, errors.IsConfigurationError(err))
}
