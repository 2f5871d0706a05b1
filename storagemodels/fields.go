/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag that declares an entity field, e.g. `metadata:"repositoryId"`.
// The option ",transient" excludes the field from persistence.
const TagName = "metadata"

// Field describes one declared field of an entity struct.
type Field struct {
	Name      string
	Transient bool
	index     []int
}

var fieldCache sync.Map // reflect.Type -> []Field

// FieldsOf returns the declared fields of the struct behind v, in declaration order.
func FieldsOf(v any) ([]Field, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity %T is not a struct", v)
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field), nil
	}

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		fields = append(fields, Field{
			Name:      name,
			Transient: opts == "transient",
			index:     sf.Index,
		})
	}
	fieldCache.Store(t, fields)
	return fields, nil
}

// DeclaredFields returns the names of the persisted fields of an entity.
func DeclaredFields(v any) ([]string, error) {
	fields, err := FieldsOf(v)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.Transient {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

// FieldValues returns the persisted field values of an entity keyed by declared name.
func FieldValues(v any) (map[string]any, error) {
	fields, err := FieldsOf(v)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("entity %T is nil", v)
		}
		rv = rv.Elem()
	}

	values := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Transient {
			continue
		}
		values[f.Name] = rv.FieldByIndex(f.index).Interface()
	}
	return values, nil
}
