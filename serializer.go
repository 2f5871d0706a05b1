/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metadatastore

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Serializer converts typed entities to generic records and back for one backend, using
// the column maps and codecs declared in the registry.
type Serializer struct {
	registry *registry.Registry
	backend  storagemodels.Backend
	now      func() time.Time
}

// NewSerializer creates a serializer for backend b.
func NewSerializer(reg *registry.Registry, b storagemodels.Backend) *Serializer {
	return &Serializer{
		registry: reg,
		backend:  b,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Backend returns the backend whose column maps the serializer applies.
func (s *Serializer) Backend() storagemodels.Backend { return s.backend }

// Serialize maps every persisted field of e onto its backend column. Fields mapped to ""
// are written by their codec. Empty lists and maps are stored as nil.
func (s *Serializer) Serialize(t storagemodels.EntityType, e storagemodels.Entity) (*storagemodels.Record, error) {
	if rv := reflect.ValueOf(e); e == nil || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil, errors.NewValidationError("entity", "entity is nil")
	}
	id := e.EntityID()
	if id == "" {
		return nil, errors.NewValidationError("id", fmt.Sprintf("%s has an empty identifier", t))
	}

	columns, err := s.registry.ColumnMap(t, s.backend)
	if err != nil {
		return nil, err
	}
	codecs, _, err := registry.OptionalValue[map[string]codec.FieldCodec](s.registry, t, registry.Codecs(s.backend))
	if err != nil {
		return nil, err
	}
	idField, err := s.registry.IDField(t)
	if err != nil {
		return nil, err
	}
	values, err := storagemodels.FieldValues(e)
	if err != nil {
		return nil, errors.NewValidationError("entity", err.Error())
	}

	fields := make(map[string]any, len(values))
	for field, value := range values {
		column, ok := columns[field]
		if !ok {
			if field == idField {
				continue
			}
			return nil, errors.NewConfigurationError(t.String(), string(registry.Columns(s.backend)),
				"field %q has no column mapping", field)
		}
		if column != "" {
			fields[column] = normalize(value)
			continue
		}
		c, ok := codecs[field]
		if !ok {
			return nil, errors.NewConfigurationError(t.String(), string(registry.Codecs(s.backend)),
				"field %q has no codec", field)
		}
		if err := c.Encode(value, fields); err != nil {
			return nil, err
		}
	}

	return &storagemodels.Record{
		EntityType: t,
		EntityID:   id,
		Fields:     fields,
		Created:    s.created(e),
	}, nil
}

// Deserialize rebuilds a typed entity from rec. The identifier field always takes the
// record id.
func (s *Serializer) Deserialize(t storagemodels.EntityType, rec *storagemodels.Record) (storagemodels.Entity, error) {
	if rec == nil {
		return nil, errors.NewValidationError("record", "record is nil")
	}
	columns, err := s.registry.ColumnMap(t, s.backend)
	if err != nil {
		return nil, err
	}
	codecs, _, err := registry.OptionalValue[map[string]codec.FieldCodec](s.registry, t, registry.Codecs(s.backend))
	if err != nil {
		return nil, err
	}
	idField, err := s.registry.IDField(t)
	if err != nil {
		return nil, err
	}

	input := make(map[string]any, len(columns)+1)
	for field, column := range columns {
		if column != "" {
			if v, ok := rec.Fields[column]; ok && v != nil {
				input[field] = v
			}
			continue
		}
		c, ok := codecs[field]
		if !ok {
			return nil, errors.NewConfigurationError(t.String(), string(registry.Codecs(s.backend)),
				"field %q has no codec", field)
		}
		v, err := c.Decode(rec.Fields)
		if err != nil {
			return nil, withType(t, err)
		}
		input[field] = v
	}
	input[idField] = rec.EntityID

	e, err := s.registry.NewEntity(t)
	if err != nil {
		return nil, err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          storagemodels.TagName,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		Result:           e,
	})
	if err != nil {
		return nil, errors.NewConfigurationError(t.String(), string(registry.DimFactory), "%v", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, errors.NewDataIntegrityError(t.String(), "", err.Error())
	}
	return e, nil
}

func (s *Serializer) created(e storagemodels.Entity) time.Time {
	if ts, ok := e.(storagemodels.Timestamped); ok {
		if created := ts.CreatedAt(); !created.IsZero() {
			return created.UTC()
		}
	}
	return s.now()
}

// normalize turns values into the primitive forms every backend stores alike.
func normalize(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if tv == nil {
			return nil
		}
		return tv.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return nil
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// withType stamps codec errors, which do not know the entity type, with t.
func withType(t storagemodels.EntityType, err error) error {
	var integrity *errors.DataIntegrityError
	if stderrors.As(err, &integrity) && integrity.Type == "" {
		return errors.NewDataIntegrityError(t.String(), integrity.Field, integrity.Message)
	}
	return err
}
