/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"maps"
	"reflect"
	"time"
)

// EntityType is the closed-set tag identifying which schema a stored record conforms to.
type EntityType string

// String returns the entity type name.
func (t EntityType) String() string { return string(t) }

// Backend names one of the physical storage models a record can be persisted to.
type Backend string

const (
	// BackendTable is the partition/row-key table store.
	BackendTable Backend = "table"
	// BackendRelational is the relational store with a JSON payload column.
	BackendRelational Backend = "relational"
	// BackendMemory is the in-process memory store.
	BackendMemory Backend = "memory"
)

// Backends lists every supported backend in a stable order.
var Backends = []Backend{BackendTable, BackendRelational, BackendMemory}

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendTable, BackendRelational, BackendMemory:
		return true
	}
	return false
}

// Entity is implemented by every typed entity object.
type Entity interface {
	// EntityID returns the identifier, unique within the entity type.
	EntityID() string
}

// Timestamped entities supply the created timestamp of their record.
type Timestamped interface {
	CreatedAt() time.Time
}

// Record is the backend-agnostic unit of storage exchanged between providers and adapters.
type Record struct {
	// EntityType identifies the schema of Fields.
	EntityType EntityType
	// EntityID is unique within EntityType.
	EntityID string
	// Fields maps backend-native column names to primitive or JSON values.
	Fields map[string]any
	// Created is the record creation time.
	Created time.Time
}

// Clone returns a deep copy of the record so callers never share mutable field values.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = cloneValue(v)
	}
	return &out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case nil, string, bool, int, int64, float64, time.Time:
		return v
	case map[string]any:
		m := maps.Clone(tv)
		for k, inner := range m {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		out := make([]any, len(tv))
		for i, inner := range tv {
			out[i] = cloneValue(inner)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(cp, rv)
		return cp.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface()
	}
	return v
}
