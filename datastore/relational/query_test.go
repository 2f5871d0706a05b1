/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/errors"
)

func TestRenderPostgres(t *testing.T) {
	clauses, err := Render(Postgres, Query{
		Contains: map[string]any{"organizationName": "contoso", "active": true},
		In:       &In{Column: "teamId", Values: []any{"1", 2}},
	})
	require.NoError(t, err)
	require.Len(t, clauses, 2)

	assert.Equal(t, "metadata @> ?::jsonb", clauses[0].SQL)
	assert.Equal(t, []any{`{"active":true,"organizationName":"contoso"}`}, clauses[0].Args)

	assert.Equal(t, "metadata->>'teamId' IN ?", clauses[1].SQL)
	assert.Equal(t, []any{[]string{"1", "2"}}, clauses[1].Args)
}

func TestRenderSQLite(t *testing.T) {
	clauses, err := Render(SQLite, Query{
		Contains: map[string]any{"organizationName": "contoso", "active": true},
	})
	require.NoError(t, err)
	require.Len(t, clauses, 2)

	assert.Equal(t, "json_extract(metadata, '$.active') = ?", clauses[0].SQL)
	assert.Equal(t, []any{1}, clauses[0].Args)
	assert.Equal(t, "json_extract(metadata, '$.organizationName') = ?", clauses[1].SQL)
	assert.Equal(t, []any{"contoso"}, clauses[1].Args)
}

func TestRenderEmpty(t *testing.T) {
	clauses, err := Render(Postgres, Query{})
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestRenderRejectsInjectedColumns(t *testing.T) {
	for _, q := range []Query{
		{Contains: map[string]any{"x') OR 1=1 --": "a"}},
		{In: &In{Column: "a'b", Values: []any{"1"}}},
	} {
		_, err := Render(SQLite, q)
		assert.True(t, errors.IsValidationError(err))
		_, err = Render(Postgres, q)
		assert.True(t, errors.IsValidationError(err))
	}
}

func TestSchema(t *testing.T) {
	pg := schema(Postgres, "metadata")
	require.Len(t, pg, 2)
	assert.Contains(t, pg[0], `CREATE TABLE IF NOT EXISTS "metadata"`)
	assert.Contains(t, pg[0], "JSONB")
	assert.Contains(t, pg[1], "USING GIN")

	lite := schema(SQLite, "metadata")
	require.Len(t, lite, 1)
	assert.Contains(t, lite[0], "PRIMARY KEY (entitytype, entityid)")
}
