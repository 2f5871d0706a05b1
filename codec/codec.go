/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"fmt"
	"strconv"

	"github.com/suparena/metadatastore/errors"
)

// FieldCodec encodes one entity field that does not map 1:1 onto a flat column.
// Backends with native nested values never invoke codecs.
type FieldCodec interface {
	// Encode writes value into columns.
	Encode(value any, columns map[string]any) error
	// Decode reconstructs the field value solely from columns.
	Decode(columns map[string]any) (any, error)
}

// IndexedList stores a list as a count column plus one or more indexed columns per item,
// e.g. teamsCount, teamid0, teamid0p, teamid1, teamid1p.
type IndexedList[T any] struct {
	// CountColumn holds the number of items written.
	CountColumn string
	// ItemColumns are fmt patterns with a single %d verb, one per item part.
	ItemColumns []string
	// Split flattens an item into one string per ItemColumns entry.
	Split func(item T) []string
	// Join rebuilds an item from its column values.
	Join func(parts []string) (T, error)
}

// Strings returns a codec for a plain string list stored as count + pattern columns.
func Strings(countColumn, itemPattern string) *IndexedList[string] {
	return &IndexedList[string]{
		CountColumn: countColumn,
		ItemColumns: []string{itemPattern},
		Split:       func(s string) []string { return []string{s} },
		Join:        func(parts []string) (string, error) { return parts[0], nil },
	}
}

// Encode implements FieldCodec. The count written always equals the number of items.
func (c *IndexedList[T]) Encode(value any, columns map[string]any) error {
	var items []T
	switch tv := value.(type) {
	case nil:
	case []T:
		items = tv
	default:
		return errors.NewValidationError(c.CountColumn, fmt.Sprintf("expected %T, got %T", items, value))
	}

	for i, item := range items {
		parts := c.Split(item)
		if len(parts) != len(c.ItemColumns) {
			return errors.NewValidationError(c.CountColumn,
				fmt.Sprintf("item %d split into %d parts, expected %d", i, len(parts), len(c.ItemColumns)))
		}
		for j, pattern := range c.ItemColumns {
			columns[fmt.Sprintf(pattern, i)] = parts[j]
		}
	}
	columns[c.CountColumn] = len(items)
	return nil
}

// Decode implements FieldCodec. Any expected index that is missing, or an item present
// beyond the encoded count, is a data integrity error.
func (c *IndexedList[T]) Decode(columns map[string]any) (any, error) {
	count, present, err := c.count(columns)
	if err != nil {
		return nil, err
	}
	if !present {
		if _, stray := columns[fmt.Sprintf(c.ItemColumns[0], 0)]; stray {
			return nil, errors.NewDataIntegrityError("", c.CountColumn, "indexed items present without a count column")
		}
		return []T(nil), nil
	}
	if count == 0 {
		if _, stray := columns[fmt.Sprintf(c.ItemColumns[0], 0)]; stray {
			return nil, errors.NewDataIntegrityError("", c.CountColumn, "count is 0 but item 0 is present")
		}
		return []T(nil), nil
	}

	items := make([]T, 0, count)
	for i := 0; i < count; i++ {
		parts := make([]string, len(c.ItemColumns))
		for j, pattern := range c.ItemColumns {
			column := fmt.Sprintf(pattern, i)
			raw, ok := columns[column]
			if !ok {
				return nil, errors.NewDataIntegrityError("", column,
					fmt.Sprintf("missing indexed column %d of %d", i, count))
			}
			s, ok := raw.(string)
			if !ok {
				return nil, errors.NewDataIntegrityError("", column, fmt.Sprintf("expected string, got %T", raw))
			}
			parts[j] = s
		}
		item, err := c.Join(parts)
		if err != nil {
			return nil, errors.NewDataIntegrityError("", fmt.Sprintf(c.ItemColumns[0], i), err.Error())
		}
		items = append(items, item)
	}

	if _, extra := columns[fmt.Sprintf(c.ItemColumns[0], count)]; extra {
		return nil, errors.NewDataIntegrityError("", c.CountColumn,
			fmt.Sprintf("count is %d but item %d is present", count, count))
	}
	return items, nil
}

func (c *IndexedList[T]) count(columns map[string]any) (int, bool, error) {
	raw, ok := columns[c.CountColumn]
	if !ok || raw == nil {
		return 0, false, nil
	}

	var n int
	switch tv := raw.(type) {
	case int:
		n = tv
	case int32:
		n = int(tv)
	case int64:
		n = int(tv)
	case float64:
		n = int(tv)
		if float64(n) != tv {
			return 0, true, errors.NewDataIntegrityError("", c.CountColumn, fmt.Sprintf("non-integral count %v", tv))
		}
	case string:
		parsed, err := strconv.Atoi(tv)
		if err != nil {
			return 0, true, errors.NewDataIntegrityError("", c.CountColumn, fmt.Sprintf("unparseable count %q", tv))
		}
		n = parsed
	default:
		return 0, true, errors.NewDataIntegrityError("", c.CountColumn, fmt.Sprintf("unexpected count type %T", raw))
	}
	if n < 0 {
		return 0, true, errors.NewDataIntegrityError("", c.CountColumn, fmt.Sprintf("negative count %d", n))
	}
	return n, true, nil
}
