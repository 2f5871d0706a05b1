/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package relational

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	storeerrors "github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Dialect selects SQL rendering for JSON predicates.
type Dialect string

const (
	Postgres Dialect = PostgresDbType
	SQLite   Dialect = SqliteDbType
)

// Query is the relational rendition of a fixed query. The zero value selects every record
// of the type.
type Query struct {
	// Contains matches records whose JSON payload contains every key with an equal value.
	Contains map[string]any
	// In matches records whose payload key equals one of Values. An empty set matches nothing.
	In *In
}

// In is a set membership predicate on one payload key.
type In struct {
	Column string
	Values []any
}

// Translator maps a fixed query descriptor onto a Query for one entity type.
type Translator func(q query.Fixed) (Query, error)

// TranslatorFor returns the relational translator registered for entityType.
func TranslatorFor(reg *registry.Registry, entityType storagemodels.EntityType) (Translator, error) {
	dim := registry.QueryTranslator(storagemodels.BackendRelational)
	raw, err := reg.Lookup(entityType, dim, true)
	if err != nil {
		return nil, err
	}
	switch fn := raw.(type) {
	case Translator:
		return fn, nil
	case func(query.Fixed) (Query, error):
		return fn, nil
	}
	return nil, storeerrors.NewConfigurationError(entityType.String(), string(dim),
		"registered value is %T, expected relational.Translator", raw)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return storeerrors.NewValidationError("column", fmt.Sprintf("invalid identifier %q", name))
	}
	return nil
}

// Render builds the parameterized WHERE fragments of q for dialect d. Each fragment carries
// its own arguments and the fragments are ANDed by the caller.
func Render(d Dialect, q Query) ([]Clause, error) {
	var clauses []Clause

	if len(q.Contains) > 0 {
		keys := make([]string, 0, len(q.Contains))
		for k := range q.Contains {
			if err := validIdentifier(k); err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		switch d {
		case Postgres:
			doc, err := json.Marshal(q.Contains)
			if err != nil {
				return nil, storeerrors.NewValidationError("contains", err.Error())
			}
			clauses = append(clauses, Clause{SQL: "metadata @> ?::jsonb", Args: []any{string(doc)}})
		case SQLite:
			for _, k := range keys {
				clauses = append(clauses, Clause{
					SQL:  fmt.Sprintf("json_extract(metadata, '$.%s') = ?", k),
					Args: []any{sqliteValue(q.Contains[k])},
				})
			}
		default:
			return nil, fmt.Errorf("unsupported dialect %q", d)
		}
	}

	if q.In != nil {
		if err := validIdentifier(q.In.Column); err != nil {
			return nil, err
		}
		switch d {
		case Postgres:
			values := make([]string, len(q.In.Values))
			for i, v := range q.In.Values {
				values[i] = fmt.Sprint(v)
			}
			clauses = append(clauses, Clause{SQL: fmt.Sprintf("metadata->>'%s' IN ?", q.In.Column), Args: []any{values}})
		case SQLite:
			values := make([]any, len(q.In.Values))
			for i, v := range q.In.Values {
				values[i] = sqliteValue(v)
			}
			clauses = append(clauses, Clause{SQL: fmt.Sprintf("json_extract(metadata, '$.%s') IN ?", q.In.Column), Args: []any{values}})
		default:
			return nil, fmt.Errorf("unsupported dialect %q", d)
		}
	}
	return clauses, nil
}

// Clause is one parameterized WHERE fragment.
type Clause struct {
	SQL  string
	Args []any
}

// sqliteValue converts v into what json_extract returns for it.
func sqliteValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
