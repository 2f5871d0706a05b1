/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"

	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/storagemodels"
)

// Description is the printable configuration of one entity type.
type Description struct {
	Type     storagemodels.EntityType `yaml:"type" json:"type"`
	IDField  string                   `yaml:"idField" json:"idField"`
	IDQuery  bool                     `yaml:"idQuery,omitempty" json:"idQuery,omitempty"`
	Backends []BackendDescription     `yaml:"backends" json:"backends"`
}

// BackendDescription is the printable mapping of an entity type on one backend.
type BackendDescription struct {
	Backend      storagemodels.Backend `yaml:"backend" json:"backend"`
	Table        string                `yaml:"table,omitempty" json:"table,omitempty"`
	Partition    string                `yaml:"partition,omitempty" json:"partition,omitempty"`
	RowKeyPrefix string                `yaml:"rowKeyPrefix,omitempty" json:"rowKeyPrefix,omitempty"`
	IDColumn     string                `yaml:"idColumn,omitempty" json:"idColumn,omitempty"`
	TypeValue    string                `yaml:"typeValue" json:"typeValue"`
	Columns      map[string]string     `yaml:"columns" json:"columns"`
	Codecs       []string              `yaml:"codecs,omitempty" json:"codecs,omitempty"`
}

// Describe collects the registered configuration of entityType.
func (r *Registry) Describe(entityType storagemodels.EntityType) (Description, error) {
	d := Description{Type: entityType}
	var err error
	if d.IDField, err = r.IDField(entityType); err != nil {
		return d, err
	}
	if _, d.IDQuery, err = r.IDQuery(entityType); err != nil {
		return d, err
	}

	for _, b := range r.Backends(entityType) {
		bd := BackendDescription{Backend: b}
		if bd.Columns, err = r.ColumnMap(entityType, b); err != nil {
			return d, err
		}
		for _, s := range []struct {
			dim Dimension
			dst *string
		}{
			{TableName(b), &bd.Table},
			{Partition(b), &bd.Partition},
			{RowKeyPrefix(b), &bd.RowKeyPrefix},
			{IDColumn(b), &bd.IDColumn},
			{TypeValue(b), &bd.TypeValue},
		} {
			if *s.dst, _, err = OptionalValue[string](r, entityType, s.dim); err != nil {
				return d, err
			}
		}
		codecs, _, err := OptionalValue[map[string]codec.FieldCodec](r, entityType, Codecs(b))
		if err != nil {
			return d, err
		}
		for field := range codecs {
			bd.Codecs = append(bd.Codecs, field)
		}
		sort.Strings(bd.Codecs)
		d.Backends = append(d.Backends, bd)
	}
	return d, nil
}

// DescribeAll describes every registered entity type in name order.
func (r *Registry) DescribeAll() ([]Description, error) {
	var out []Description
	for _, t := range r.EntityTypes() {
		d, err := r.Describe(t)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
