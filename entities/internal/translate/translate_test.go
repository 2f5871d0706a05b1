/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/metadatastore/storagemodels"
)

func record(fields map[string]any) *storagemodels.Record {
	return &storagemodels.Record{EntityType: "orgsetting", EntityID: "1", Fields: fields}
}

func TestEquals(t *testing.T) {
	match := Equals(map[string]any{"organizationId": "42", "active": true})
	assert.True(t, match(record(map[string]any{"organizationId": "42", "active": true})))
	assert.False(t, match(record(map[string]any{"organizationId": "42", "active": false})))
	assert.False(t, match(record(map[string]any{"active": true})))
}

func TestEqualsWithSliceColumn(t *testing.T) {
	r := record(map[string]any{"features": []string{"a", "b"}, "organizationId": "42"})

	assert.NotPanics(t, func() {
		assert.False(t, Equals(map[string]any{"features": "a"})(r))
		assert.True(t, Equals(map[string]any{"features": []string{"a", "b"}})(r))
		assert.False(t, Equals(map[string]any{"organizationId": []string{"42"}})(r))
	})
}

func TestIn(t *testing.T) {
	active := Equals(map[string]any{"active": true})
	match := In("organizationId", Values([]string{"1", "2"}), active)

	assert.True(t, match(record(map[string]any{"organizationId": "2", "active": true})))
	assert.False(t, match(record(map[string]any{"organizationId": "2", "active": false})))
	assert.False(t, match(record(map[string]any{"organizationId": "3", "active": true})))
	assert.True(t, In("organizationId", Values([]string{"3"}), nil)(record(map[string]any{"organizationId": "3"})))
}

func TestInWithSliceValues(t *testing.T) {
	assert.NotPanics(t, func() {
		byList := In("features", []any{[]string{"a"}, "b"}, nil)
		assert.True(t, byList(record(map[string]any{"features": []string{"a"}})))
		assert.True(t, byList(record(map[string]any{"features": "b"})))
		assert.False(t, byList(record(map[string]any{"features": []string{"c"}})))
	})
}
