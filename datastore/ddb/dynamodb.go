/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/rs/zerolog"

	"github.com/suparena/metadatastore/datastore"
	storeerrors "github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Key and bookkeeping attributes written on every item.
const (
	AttrPartition  = "PK"
	AttrRowKey     = "SK"
	AttrEntityType = "EntityType"
	AttrCreated    = "Created"
)

// DefaultTable is used for entity types that do not register a table name.
const DefaultTable = "metadata"

var reserved = map[string]bool{
	AttrPartition:  true,
	AttrRowKey:     true,
	AttrEntityType: true,
	AttrCreated:    true,
}

var _ datastore.Adapter = (*Adapter)(nil)

// Adapter stores records in DynamoDB tables keyed by partition (PK) and row key (SK).
type Adapter struct {
	client       Client
	registry     *registry.Registry
	tablePrefix  string
	createTables bool
	pageSize     int32
	logger       zerolog.Logger

	mappings sync.Map // storagemodels.EntityType -> *mapping
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTablePrefix prefixes every table name, e.g. "prod-".
func WithTablePrefix(prefix string) Option {
	return func(a *Adapter) { a.tablePrefix = prefix }
}

// WithCreateTables makes Initialize create missing tables.
func WithCreateTables(create bool) Option {
	return func(a *Adapter) { a.createTables = create }
}

// WithPageSize sets the page size of queries and scans.
func WithPageSize(size int32) Option {
	return func(a *Adapter) { a.pageSize = size }
}

// WithLogger sets the adapter logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Adapter) { a.logger = logger.With().Str("component", "ddb").Logger() }
}

// New constructs a table adapter over client.
func New(client Client, reg *registry.Registry, opts ...Option) *Adapter {
	a := &Adapter{
		client:   client,
		registry: reg,
		pageSize: 100,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backend implements datastore.Adapter.
func (a *Adapter) Backend() storagemodels.Backend { return storagemodels.BackendTable }

// SupportsPointQuery implements datastore.Adapter. Only types with a fixed partition can be
// addressed by id alone.
func (a *Adapter) SupportsPointQuery(entityType storagemodels.EntityType) bool {
	m, err := a.mapping(entityType)
	return err == nil && !m.derived
}

// Get implements datastore.Adapter.
func (a *Adapter) Get(ctx context.Context, entityType storagemodels.EntityType, id string) (*storagemodels.Record, error) {
	m, err := a.mapping(entityType)
	if err != nil {
		return nil, err
	}
	if m.derived {
		return nil, storeerrors.NewConfigurationError(entityType.String(), string(registry.Partition(storagemodels.BackendTable)),
			"partition %q is derived from fields, records cannot be read by id alone", m.partition)
	}

	out, err := a.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(m.table),
		Key:       m.key(m.partition, id),
	})
	if err != nil {
		return nil, a.translateError("get", entityType, id, err)
	}
	if out.Item == nil || !m.owns(out.Item) {
		return nil, storeerrors.NewNotFoundError(entityType.String(), id)
	}
	return m.record(out.Item)
}

// Insert implements datastore.Adapter.
func (a *Adapter) Insert(ctx context.Context, rec *storagemodels.Record, opts datastore.InsertOptions) error {
	m, item, err := a.prepare(rec)
	if err != nil {
		return err
	}
	if m.derived && !opts.UniquenessVerified {
		return storeerrors.NewConfigurationError(rec.EntityType.String(), string(registry.DimIDQuery),
			"insert without point query requires a verified uniqueness check")
	}

	_, err = a.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                aws.String(m.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": AttrPartition},
	})
	if err != nil {
		return a.translateError("insert", rec.EntityType, rec.EntityID, err)
	}
	a.logger.Debug().Str("entityType", rec.EntityType.String()).Str("id", rec.EntityID).Str("table", m.table).Msg("inserted item")
	return nil
}

// Update implements datastore.Adapter. The item is replaced as a whole so shrinking
// indexed lists leave no stale columns behind.
func (a *Adapter) Update(ctx context.Context, rec *storagemodels.Record) error {
	m, item, err := a.prepare(rec)
	if err != nil {
		return err
	}

	_, err = a.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                aws.String(m.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": AttrPartition},
	})
	if err != nil {
		return a.translateError("update", rec.EntityType, rec.EntityID, err)
	}
	return nil
}

// Delete implements datastore.Adapter.
func (a *Adapter) Delete(ctx context.Context, rec *storagemodels.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	m, err := a.mapping(rec.EntityType)
	if err != nil {
		return err
	}
	partition, err := m.partitionOf(rec)
	if err != nil {
		return err
	}

	_, err = a.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                aws.String(m.table),
		Key:                      m.key(partition, rec.EntityID),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": AttrPartition},
	})
	if err != nil {
		return a.translateError("delete", rec.EntityType, rec.EntityID, err)
	}
	return nil
}

func (a *Adapter) prepare(rec *storagemodels.Record) (*mapping, map[string]types.AttributeValue, error) {
	if err := validateRecord(rec); err != nil {
		return nil, nil, err
	}
	m, err := a.mapping(rec.EntityType)
	if err != nil {
		return nil, nil, err
	}
	item, err := m.item(rec)
	if err != nil {
		return nil, nil, err
	}
	return m, item, nil
}

func (a *Adapter) translateError(operation string, entityType storagemodels.EntityType, id string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		switch operation {
		case "insert":
			return storeerrors.NewAlreadyExistsError(entityType.String(), id)
		case "update", "delete":
			return storeerrors.NewNotFoundError(entityType.String(), id)
		}
	}
	return storeerrors.NewBackendError(string(storagemodels.BackendTable), operation, entityType.String(), err)
}

// mapping is the resolved table configuration of one entity type.
type mapping struct {
	entityType   storagemodels.EntityType
	table        string
	partition    string
	derived      bool
	rowKeyPrefix string
	idColumn     string
	typeValue    string
	columns      map[string]string
}

func (a *Adapter) mapping(entityType storagemodels.EntityType) (*mapping, error) {
	if cached, ok := a.mappings.Load(entityType); ok {
		return cached.(*mapping), nil
	}

	b := storagemodels.BackendTable
	columns, err := a.registry.ColumnMap(entityType, b)
	if err != nil {
		return nil, err
	}
	partition, err := registry.Value[string](a.registry, entityType, registry.Partition(b))
	if err != nil {
		return nil, err
	}
	table, _, err := registry.OptionalValue[string](a.registry, entityType, registry.TableName(b))
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	prefix, _, err := registry.OptionalValue[string](a.registry, entityType, registry.RowKeyPrefix(b))
	if err != nil {
		return nil, err
	}
	idColumn, _, err := registry.OptionalValue[string](a.registry, entityType, registry.IDColumn(b))
	if err != nil {
		return nil, err
	}
	typeValue, ok, err := registry.OptionalValue[string](a.registry, entityType, registry.TypeValue(b))
	if err != nil {
		return nil, err
	}
	if !ok {
		typeValue = entityType.String()
	}

	for field, column := range columns {
		if reserved[column] {
			return nil, storeerrors.NewConfigurationError(entityType.String(), string(registry.Columns(b)),
				"field %q maps to reserved attribute %q", field, column)
		}
	}
	if reserved[idColumn] {
		return nil, storeerrors.NewConfigurationError(entityType.String(), string(registry.IDColumn(b)),
			"identifier column %q is a reserved attribute", idColumn)
	}

	m := &mapping{
		entityType:   entityType,
		table:        a.tablePrefix + table,
		partition:    partition,
		derived:      macroPattern.MatchString(partition),
		rowKeyPrefix: prefix,
		idColumn:     idColumn,
		typeValue:    typeValue,
		columns:      columns,
	}
	a.mappings.Store(entityType, m)
	return m, nil
}

func (m *mapping) key(partition, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPartition: &types.AttributeValueMemberS{Value: partition},
		AttrRowKey:    &types.AttributeValueMemberS{Value: m.rowKeyPrefix + id},
	}
}

// owns reports whether item carries this mapping's entity type discriminator.
func (m *mapping) owns(item map[string]types.AttributeValue) bool {
	et, ok := item[AttrEntityType].(*types.AttributeValueMemberS)
	return ok && et.Value == m.typeValue
}

func (m *mapping) partitionOf(rec *storagemodels.Record) (string, error) {
	if !m.derived {
		return m.partition, nil
	}
	return expandMacros(m.partition, rec.Fields, m.columns)
}

// item converts a record into a DynamoDB item.
func (m *mapping) item(rec *storagemodels.Record) (map[string]types.AttributeValue, error) {
	for column := range rec.Fields {
		if reserved[column] {
			return nil, storeerrors.NewConfigurationError(rec.EntityType.String(), string(registry.Columns(storagemodels.BackendTable)),
				"column %q collides with a key attribute", column)
		}
	}

	item, err := attributevalue.MarshalMap(rec.Fields)
	if err != nil {
		return nil, storeerrors.NewValidationError("fields", fmt.Sprintf("failed to marshal record: %v", err))
	}

	partition, err := m.partitionOf(rec)
	if err != nil {
		return nil, err
	}
	for k, v := range m.key(partition, rec.EntityID) {
		item[k] = v
	}
	item[AttrEntityType] = &types.AttributeValueMemberS{Value: m.typeValue}
	if m.idColumn != "" {
		item[m.idColumn] = &types.AttributeValueMemberS{Value: rec.EntityID}
	}
	created := rec.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	item[AttrCreated] = &types.AttributeValueMemberS{Value: strfmt.DateTime(created).String()}
	return item, nil
}

// record converts a DynamoDB item back into a record.
func (m *mapping) record(item map[string]types.AttributeValue) (*storagemodels.Record, error) {
	rec := &storagemodels.Record{EntityType: m.entityType}

	var sk string
	if err := attributevalue.Unmarshal(item[AttrRowKey], &sk); err != nil {
		return nil, storeerrors.NewDataIntegrityError(m.entityType.String(), AttrRowKey, err.Error())
	}
	if !strings.HasPrefix(sk, m.rowKeyPrefix) {
		return nil, storeerrors.NewDataIntegrityError(m.entityType.String(), AttrRowKey,
			fmt.Sprintf("row key %q lacks prefix %q", sk, m.rowKeyPrefix))
	}
	rec.EntityID = strings.TrimPrefix(sk, m.rowKeyPrefix)

	if attr, ok := item[AttrCreated]; ok {
		var raw string
		if err := attributevalue.Unmarshal(attr, &raw); err != nil {
			return nil, storeerrors.NewDataIntegrityError(m.entityType.String(), AttrCreated, err.Error())
		}
		created, err := strfmt.ParseDateTime(raw)
		if err != nil {
			return nil, storeerrors.NewDataIntegrityError(m.entityType.String(), AttrCreated, err.Error())
		}
		rec.Created = time.Time(created).UTC()
	}

	fields := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if !reserved[k] {
			fields[k] = v
		}
	}
	if err := attributevalue.UnmarshalMap(fields, &rec.Fields); err != nil {
		return nil, storeerrors.NewDataIntegrityError(m.entityType.String(), "fields", err.Error())
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec, nil
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros replaces every {name} in template with the value of the named column, or of
// the column a declared field maps to. Missing or empty values are an error since key
// attributes cannot be empty.
func expandMacros(template string, fields map[string]any, columns map[string]string) (string, error) {
	var expandErr error
	expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
		name := strings.Trim(macro, "{}")
		column := name
		if mapped, ok := columns[name]; ok && mapped != "" {
			column = mapped
		}

		val, ok := fields[column]
		if !ok {
			expandErr = storeerrors.NewValidationError(name, "partition key field is missing")
			return ""
		}
		av, err := attributevalue.Marshal(val)
		if err != nil {
			expandErr = storeerrors.NewValidationError(name, err.Error())
			return ""
		}

		var s string
		switch tv := av.(type) {
		case *types.AttributeValueMemberS:
			s = tv.Value
		case *types.AttributeValueMemberN:
			s = tv.Value
		case *types.AttributeValueMemberBOOL:
			s = fmt.Sprintf("%v", tv.Value)
		}
		if s == "" {
			expandErr = storeerrors.NewValidationError(name, "partition key field is empty or not scalar")
		}
		return s
	})
	if expandErr != nil {
		return "", expandErr
	}
	return expanded, nil
}

func validateRecord(rec *storagemodels.Record) error {
	if rec == nil {
		return storeerrors.NewValidationError("record", "record is nil")
	}
	if rec.EntityID == "" {
		return storeerrors.NewValidationError("entityId", "entity id is required")
	}
	return nil
}
