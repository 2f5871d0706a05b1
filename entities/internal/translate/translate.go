/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package translate holds helpers shared by the fixed query translators of the entity
// modules.
package translate

import (
	"reflect"

	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/storagemodels"
)

// Values converts a typed slice to the []any carried by set membership predicates.
func Values[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// All matches every record.
func All() memory.Predicate { return nil }

// Equals matches records whose columns hold exactly the given values.
func Equals(columns map[string]any) memory.Predicate {
	return func(r *storagemodels.Record) bool {
		for column, want := range columns {
			if !same(r.Fields[column], want) {
				return false
			}
		}
		return true
	}
}

// In matches records whose column holds one of values, and further satisfies and when set.
func In(column string, values []any, and memory.Predicate) memory.Predicate {
	set := make(map[any]bool, len(values))
	var rest []any
	for _, v := range values {
		if hashable(v) {
			set[v] = true
		} else {
			rest = append(rest, v)
		}
	}
	return func(r *storagemodels.Record) bool {
		got := r.Fields[column]
		if !(hashable(got) && set[got]) && !contains(rest, got) {
			return false
		}
		return and == nil || and(r)
	}
}

// hashable reports whether v can be compared with == without panicking. Structs and
// arrays may hide slices behind interface fields, so they are left to reflect.DeepEqual.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Struct, reflect.Array:
		return false
	}
	return t.Comparable()
}

func same(a, b any) bool {
	if hashable(a) && hashable(b) {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func contains(values []any, v any) bool {
	for _, candidate := range values {
		if reflect.DeepEqual(candidate, v) {
			return true
		}
	}
	return false
}
