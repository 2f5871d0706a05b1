/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"
	"strings"

	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/storagemodels"
)

// Mapping is the configuration of one entity type on one backend.
type Mapping struct {
	// Table is the table or collection name.
	Table string
	// Columns maps declared field names to backend column names. "" means the field is
	// encoded by the codec registered under the same field name in Codecs.
	Columns map[string]string
	// Codecs holds specialized serializers for fields mapped to "".
	Codecs map[string]codec.FieldCodec
	// Partition is the partition key template, fixed or with {field} macros.
	Partition string
	// RowKeyPrefix is prepended to the entity id to build the row key.
	RowKeyPrefix string
	// IDColumn names the column that also stores the identifier, when the backend needs one.
	IDColumn string
	// TypeValue is the discriminator stored with each record. Defaults to the entity type.
	TypeValue string
	// Query is the backend-specific fixed query translator.
	Query any
}

// Declaration describes one entity type and every backend it supports.
type Declaration struct {
	Type     storagemodels.EntityType
	IDField  string
	New      Factory
	IDQuery  IDQueryFunc
	Mappings map[storagemodels.Backend]Mapping
}

// Declare registers every dimension of d and validates the mappings of each backend.
// Any error must abort startup.
func (r *Registry) Declare(d Declaration) error {
	t := d.Type
	if t == "" {
		return errors.NewConfigurationError("", "", "declaration without entity type")
	}
	if d.New == nil {
		return errors.NewConfigurationError(t.String(), string(DimFactory), "factory is required")
	}
	if d.IDField == "" {
		return errors.NewConfigurationError(t.String(), string(DimIDField), "identifier field is required")
	}
	if len(d.Mappings) == 0 {
		return errors.NewConfigurationError(t.String(), "", "no backend mappings declared")
	}

	for b := range d.Mappings {
		if !b.Valid() {
			return errors.NewConfigurationError(t.String(), "", "unknown backend %q", b)
		}
	}

	if err := r.Register(t, DimFactory, d.New); err != nil {
		return err
	}
	if err := r.Register(t, DimIDField, d.IDField); err != nil {
		return err
	}
	if d.IDQuery != nil {
		if err := r.Register(t, DimIDQuery, d.IDQuery); err != nil {
			return err
		}
	}

	for _, b := range storagemodels.Backends {
		m, ok := d.Mappings[b]
		if !ok {
			continue
		}
		if err := r.registerMapping(t, b, m); err != nil {
			return err
		}
	}
	return r.ValidateEntity(t)
}

func (r *Registry) registerMapping(t storagemodels.EntityType, b storagemodels.Backend, m Mapping) error {
	if m.Columns == nil {
		return errors.NewConfigurationError(t.String(), string(Columns(b)), "column map is required")
	}
	if m.Query == nil {
		return errors.NewConfigurationError(t.String(), string(QueryTranslator(b)), "query translator is required")
	}
	if m.TypeValue == "" {
		m.TypeValue = t.String()
	}

	entries := []struct {
		d Dimension
		v any
	}{
		{Columns(b), m.Columns},
		{QueryTranslator(b), m.Query},
		{TypeValue(b), m.TypeValue},
	}
	if m.Table != "" {
		entries = append(entries, struct {
			d Dimension
			v any
		}{TableName(b), m.Table})
	}
	if m.Codecs != nil {
		entries = append(entries, struct {
			d Dimension
			v any
		}{Codecs(b), m.Codecs})
	}
	if m.Partition != "" {
		entries = append(entries, struct {
			d Dimension
			v any
		}{Partition(b), m.Partition})
	}
	if m.RowKeyPrefix != "" {
		entries = append(entries, struct {
			d Dimension
			v any
		}{RowKeyPrefix(b), m.RowKeyPrefix})
	}
	if m.IDColumn != "" {
		entries = append(entries, struct {
			d Dimension
			v any
		}{IDColumn(b), m.IDColumn})
	}

	for _, e := range entries {
		if err := r.Register(t, e.d, e.v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMappings asserts that every declared field, except the exempt ones, is a key
// of the column map registered under dimension. Fields mapped to "" count as present.
// All missing fields are reported in a single configuration error.
func (r *Registry) ValidateMappings(entityType storagemodels.EntityType, dimension Dimension, declared, exempt []string) error {
	columns, err := Value[map[string]string](r, entityType, dimension)
	if err != nil {
		return err
	}

	skip := make(map[string]struct{}, len(exempt))
	for _, name := range exempt {
		skip[name] = struct{}{}
	}

	var missing []string
	for _, name := range declared {
		if _, ok := skip[name]; ok {
			continue
		}
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.NewConfigurationError(entityType.String(), string(dimension),
			"declared fields without a column mapping: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateEntity validates every backend mapping of entityType: declared field coverage,
// codecs for codec-mapped fields, and that no column collides with another.
func (r *Registry) ValidateEntity(entityType storagemodels.EntityType) error {
	e, err := r.NewEntity(entityType)
	if err != nil {
		return err
	}
	declared, err := storagemodels.DeclaredFields(e)
	if err != nil {
		return errors.NewConfigurationError(entityType.String(), string(DimFactory), "%v", err)
	}
	idField, err := r.IDField(entityType)
	if err != nil {
		return err
	}
	if !contains(declared, idField) {
		return errors.NewConfigurationError(entityType.String(), string(DimIDField),
			"identifier field %q is not a declared field", idField)
	}

	backends := r.Backends(entityType)
	if len(backends) == 0 {
		return errors.NewConfigurationError(entityType.String(), "", "no backend mappings registered")
	}
	for _, b := range backends {
		if err := r.ValidateMappings(entityType, Columns(b), declared, []string{idField}); err != nil {
			return err
		}
		if err := r.validateColumns(entityType, b, declared); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateColumns(entityType storagemodels.EntityType, b storagemodels.Backend, declared []string) error {
	columns, err := r.ColumnMap(entityType, b)
	if err != nil {
		return err
	}
	codecs, _, err := OptionalValue[map[string]codec.FieldCodec](r, entityType, Codecs(b))
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(columns))
	fields := make([]string, 0, len(columns))
	for field := range columns {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		column := columns[field]
		if !contains(declared, field) {
			return errors.NewConfigurationError(entityType.String(), string(Columns(b)),
				"column map references undeclared field %q", field)
		}
		if column == "" {
			if _, ok := codecs[field]; !ok {
				return errors.NewConfigurationError(entityType.String(), string(Codecs(b)),
					"field %q is mapped to no column but has no codec", field)
			}
			continue
		}
		if other, dup := seen[column]; dup {
			return errors.NewConfigurationError(entityType.String(), string(Columns(b)),
				"fields %q and %q both map to column %q", other, field, column)
		}
		seen[column] = field
	}
	return nil
}

// ValidateAll validates every registered entity type.
func (r *Registry) ValidateAll() error {
	for _, t := range r.EntityTypes() {
		if err := r.ValidateEntity(t); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
