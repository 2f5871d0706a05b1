/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	storeerrors "github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Predicate is an equality filter on one attribute.
type Predicate struct {
	Column string
	Value  any
}

// AnyOf matches items whose attribute equals one of Values.
type AnyOf struct {
	Column string
	Values []any
}

// TableQuery is the table rendition of a fixed query.
type TableQuery struct {
	// Partition restricts the query to one partition. When empty, the type's fixed
	// partition is used, or the whole table is scanned for derived partitions.
	Partition string
	// Equals are ANDed equality filters.
	Equals []Predicate
	// AnyOf is an optional set membership filter. An empty set matches nothing.
	AnyOf *AnyOf
}

// Translator maps a fixed query descriptor onto a TableQuery for one entity type.
type Translator func(q query.Fixed) (TableQuery, error)

// TranslatorFor returns the table translator registered for entityType.
func TranslatorFor(reg *registry.Registry, entityType storagemodels.EntityType) (Translator, error) {
	dim := registry.QueryTranslator(storagemodels.BackendTable)
	raw, err := reg.Lookup(entityType, dim, true)
	if err != nil {
		return nil, err
	}
	switch fn := raw.(type) {
	case Translator:
		return fn, nil
	case func(query.Fixed) (TableQuery, error):
		return fn, nil
	}
	return nil, storeerrors.NewConfigurationError(entityType.String(), string(dim),
		"registered value is %T, expected ddb.Translator", raw)
}

// expression is a rendered TableQuery.
type expression struct {
	keyCondition *string
	filter       *string
	names        map[string]string
	values       map[string]types.AttributeValue
}

// render builds the key condition and filter of tq. Every attribute name and value goes
// through placeholders.
func (m *mapping) render(tq TableQuery) (*expression, error) {
	e := &expression{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}

	partition := tq.Partition
	if partition == "" && !m.derived {
		partition = m.partition
	}
	if partition != "" {
		e.names["#pk"] = AttrPartition
		e.values[":pk"] = &types.AttributeValueMemberS{Value: partition}
		cond := "#pk = :pk"
		if m.rowKeyPrefix != "" {
			e.names["#sk"] = AttrRowKey
			e.values[":skp"] = &types.AttributeValueMemberS{Value: m.rowKeyPrefix}
			cond += " AND begins_with(#sk, :skp)"
		}
		e.keyCondition = aws.String(cond)
	}

	e.names["#et"] = AttrEntityType
	e.values[":et"] = &types.AttributeValueMemberS{Value: m.typeValue}
	clauses := []string{"#et = :et"}

	for i, p := range tq.Equals {
		name, value := fmt.Sprintf("#f%d", i), fmt.Sprintf(":f%d", i)
		av, err := attributevalue.Marshal(p.Value)
		if err != nil {
			return nil, storeerrors.NewValidationError(p.Column, err.Error())
		}
		e.names[name] = p.Column
		e.values[value] = av
		clauses = append(clauses, name+" = "+value)
	}

	if tq.AnyOf != nil {
		e.names["#in"] = tq.AnyOf.Column
		alternatives := make([]string, 0, len(tq.AnyOf.Values))
		for i, v := range tq.AnyOf.Values {
			value := fmt.Sprintf(":in%d", i)
			av, err := attributevalue.Marshal(v)
			if err != nil {
				return nil, storeerrors.NewValidationError(tq.AnyOf.Column, err.Error())
			}
			e.values[value] = av
			alternatives = append(alternatives, "#in = "+value)
		}
		clauses = append(clauses, "("+strings.Join(alternatives, " OR ")+")")
	}

	e.filter = aws.String(strings.Join(clauses, " AND "))
	return e, nil
}

// Query implements datastore.Adapter. Partitioned queries are served by Query, the rest by
// Scan; both are fully paged.
func (a *Adapter) Query(ctx context.Context, entityType storagemodels.EntityType, q query.Fixed) ([]*storagemodels.Record, error) {
	m, err := a.mapping(entityType)
	if err != nil {
		return nil, err
	}
	translate, err := TranslatorFor(a.registry, entityType)
	if err != nil {
		return nil, err
	}
	tq, err := translate(q)
	if err != nil {
		return nil, err
	}
	if tq.AnyOf != nil && len(tq.AnyOf.Values) == 0 {
		return nil, nil
	}

	e, err := m.render(tq)
	if err != nil {
		return nil, err
	}

	var p pager
	if e.keyCondition != nil {
		p = queryPager{sdk.NewQueryPaginator(a.client, &sdk.QueryInput{
			TableName:                 aws.String(m.table),
			KeyConditionExpression:    e.keyCondition,
			FilterExpression:          e.filter,
			ExpressionAttributeNames:  e.names,
			ExpressionAttributeValues: e.values,
			Limit:                     aws.Int32(a.pageSize),
		})}
	} else {
		p = scanPager{sdk.NewScanPaginator(a.client, &sdk.ScanInput{
			TableName:                 aws.String(m.table),
			FilterExpression:          e.filter,
			ExpressionAttributeNames:  e.names,
			ExpressionAttributeValues: e.values,
			Limit:                     aws.Int32(a.pageSize),
		})}
	}

	items, err := a.collect(ctx, p)
	if err != nil {
		return nil, a.translateError("query", entityType, query.Describe(q), err)
	}

	records := make([]*storagemodels.Record, 0, len(items))
	for _, item := range items {
		rec, err := m.record(item)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	a.logger.Debug().
		Str("entityType", entityType.String()).
		Str("query", query.Describe(q)).
		Bool("scan", e.keyCondition == nil).
		Int("count", len(records)).
		Msg("query completed")
	return records, nil
}
