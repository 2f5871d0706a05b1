/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package relational stores metadata records in generic SQL tables with a JSON payload
// column, using gorm over PostgreSQL or SQLite.
package relational

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/suparena/metadatastore/datastore"
	storeerrors "github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// DefaultTable is used for entity types that do not register a table name.
const DefaultTable = "metadata"

// row is the physical shape of every metadata table.
type row struct {
	EntityType    string    `gorm:"column:entitytype;primaryKey"`
	EntityID      string    `gorm:"column:entityid;primaryKey"`
	EntityCreated time.Time `gorm:"column:entitycreated"`
	Metadata      string    `gorm:"column:metadata"`
}

var _ datastore.Adapter = (*Adapter)(nil)

// Adapter implements datastore.Adapter over a gorm connection it owns.
type Adapter struct {
	db       *gorm.DB
	dialect  Dialect
	registry *registry.Registry
	logger   zerolog.Logger

	mappings sync.Map // storagemodels.EntityType -> *mapping
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Adapter) { a.logger = logger.With().Str("component", "relational").Logger() }
}

// New constructs an adapter over db rendering SQL for dialect.
func New(db *gorm.DB, dialect Dialect, reg *registry.Registry, opts ...Option) *Adapter {
	a := &Adapter{
		db:       db,
		dialect:  dialect,
		registry: reg,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backend implements datastore.Adapter.
func (a *Adapter) Backend() storagemodels.Backend { return storagemodels.BackendRelational }

// SupportsPointQuery implements datastore.Adapter. Rows are keyed by type and id.
func (a *Adapter) SupportsPointQuery(storagemodels.EntityType) bool { return true }

// Close releases the connection pool.
func (a *Adapter) Close() error {
	return CloseDB(a.db)
}

// Initialize implements datastore.Adapter by creating every table and index that is missing.
func (a *Adapter) Initialize(ctx context.Context) error {
	tables, err := a.Tables()
	if err != nil {
		return err
	}
	for _, table := range tables {
		for _, stmt := range schema(a.dialect, table) {
			if err := a.db.WithContext(ctx).Exec(stmt).Error; err != nil {
				return storeerrors.NewBackendError(string(storagemodels.BackendRelational), "initialize", table, err)
			}
		}
		a.logger.Debug().Str("table", table).Msg("table ready")
	}
	return nil
}

// Tables returns the distinct table names used by entity types mapped to this backend.
func (a *Adapter) Tables() ([]string, error) {
	seen := map[string]bool{}
	var tables []string
	for _, t := range a.registry.EntityTypes() {
		if !a.registry.Supports(t, storagemodels.BackendRelational) {
			continue
		}
		m, err := a.mapping(t)
		if err != nil {
			return nil, err
		}
		if !seen[m.table] {
			seen[m.table] = true
			tables = append(tables, m.table)
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// Get implements datastore.Adapter.
func (a *Adapter) Get(ctx context.Context, entityType storagemodels.EntityType, id string) (*storagemodels.Record, error) {
	m, err := a.mapping(entityType)
	if err != nil {
		return nil, err
	}

	var r row
	err = a.db.WithContext(ctx).Table(m.table).
		Where("entitytype = ? AND entityid = ?", m.typeValue, id).
		Take(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeerrors.NewNotFoundError(entityType.String(), id)
		}
		return nil, a.translateError("get", entityType, id, err)
	}
	return m.record(r)
}

// Insert implements datastore.Adapter.
func (a *Adapter) Insert(ctx context.Context, rec *storagemodels.Record, _ datastore.InsertOptions) error {
	m, r, err := a.prepare(rec)
	if err != nil {
		return err
	}
	if r.EntityCreated.IsZero() {
		r.EntityCreated = time.Now().UTC()
	}

	if err := a.db.WithContext(ctx).Table(m.table).Create(&r).Error; err != nil {
		return a.translateError("insert", rec.EntityType, rec.EntityID, err)
	}
	a.logger.Debug().Str("entityType", rec.EntityType.String()).Str("id", rec.EntityID).Str("table", m.table).Msg("inserted row")
	return nil
}

// Update implements datastore.Adapter. The creation time is kept unless the record sets one.
func (a *Adapter) Update(ctx context.Context, rec *storagemodels.Record) error {
	m, r, err := a.prepare(rec)
	if err != nil {
		return err
	}

	updates := map[string]any{"metadata": r.Metadata}
	if !r.EntityCreated.IsZero() {
		updates["entitycreated"] = r.EntityCreated
	}
	result := a.db.WithContext(ctx).Table(m.table).
		Where("entitytype = ? AND entityid = ?", m.typeValue, rec.EntityID).
		Updates(updates)
	if result.Error != nil {
		return a.translateError("update", rec.EntityType, rec.EntityID, result.Error)
	}
	if result.RowsAffected == 0 {
		return storeerrors.NewNotFoundError(rec.EntityType.String(), rec.EntityID)
	}
	return nil
}

// Delete implements datastore.Adapter.
func (a *Adapter) Delete(ctx context.Context, rec *storagemodels.Record) error {
	if rec == nil {
		return storeerrors.NewValidationError("record", "record is nil")
	}
	m, err := a.mapping(rec.EntityType)
	if err != nil {
		return err
	}

	result := a.db.WithContext(ctx).Table(m.table).
		Where("entitytype = ? AND entityid = ?", m.typeValue, rec.EntityID).
		Delete(&row{})
	if result.Error != nil {
		return a.translateError("delete", rec.EntityType, rec.EntityID, result.Error)
	}
	if result.RowsAffected == 0 {
		return storeerrors.NewNotFoundError(rec.EntityType.String(), rec.EntityID)
	}
	return nil
}

// Query implements datastore.Adapter. Rows are returned oldest first.
func (a *Adapter) Query(ctx context.Context, entityType storagemodels.EntityType, q query.Fixed) ([]*storagemodels.Record, error) {
	m, err := a.mapping(entityType)
	if err != nil {
		return nil, err
	}
	translate, err := TranslatorFor(a.registry, entityType)
	if err != nil {
		return nil, err
	}
	rq, err := translate(q)
	if err != nil {
		return nil, err
	}
	if rq.In != nil && len(rq.In.Values) == 0 {
		return nil, nil
	}
	clauses, err := Render(a.dialect, rq)
	if err != nil {
		return nil, err
	}

	tx := a.db.WithContext(ctx).Table(m.table).Where("entitytype = ?", m.typeValue)
	for _, c := range clauses {
		tx = tx.Where(c.SQL, c.Args...)
	}

	var rows []row
	if err := tx.Order("entitycreated, entityid").Find(&rows).Error; err != nil {
		return nil, a.translateError("query", entityType, query.Describe(q), err)
	}

	records := make([]*storagemodels.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := m.record(r)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (a *Adapter) prepare(rec *storagemodels.Record) (*mapping, row, error) {
	if rec == nil {
		return nil, row{}, storeerrors.NewValidationError("record", "record is nil")
	}
	if rec.EntityID == "" {
		return nil, row{}, storeerrors.NewValidationError("entityId", "entity id is required")
	}
	m, err := a.mapping(rec.EntityType)
	if err != nil {
		return nil, row{}, err
	}

	fields := rec.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, row{}, storeerrors.NewValidationError("fields", fmt.Sprintf("failed to encode payload: %v", err))
	}
	return m, row{
		EntityType:    m.typeValue,
		EntityID:      rec.EntityID,
		EntityCreated: rec.Created,
		Metadata:      string(payload),
	}, nil
}

func (a *Adapter) translateError(operation string, entityType storagemodels.EntityType, id string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return storeerrors.NewAlreadyExistsError(entityType.String(), id)
	}
	return storeerrors.NewBackendError(string(storagemodels.BackendRelational), operation, entityType.String(), err)
}

type mapping struct {
	entityType storagemodels.EntityType
	table      string
	typeValue  string
}

func (a *Adapter) mapping(entityType storagemodels.EntityType) (*mapping, error) {
	if cached, ok := a.mappings.Load(entityType); ok {
		return cached.(*mapping), nil
	}

	b := storagemodels.BackendRelational
	if _, err := a.registry.ColumnMap(entityType, b); err != nil {
		return nil, err
	}
	table, _, err := registry.OptionalValue[string](a.registry, entityType, registry.TableName(b))
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, storeerrors.NewConfigurationError(entityType.String(), string(registry.TableName(b)),
			"invalid table name %q", table)
	}
	typeValue, ok, err := registry.OptionalValue[string](a.registry, entityType, registry.TypeValue(b))
	if err != nil {
		return nil, err
	}
	if !ok {
		typeValue = entityType.String()
	}

	m := &mapping{entityType: entityType, table: table, typeValue: typeValue}
	a.mappings.Store(entityType, m)
	return m, nil
}

func (m *mapping) record(r row) (*storagemodels.Record, error) {
	rec := &storagemodels.Record{
		EntityType: m.entityType,
		EntityID:   r.EntityID,
		Created:    r.EntityCreated.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Metadata), &rec.Fields); err != nil {
		return nil, storeerrors.NewDataIntegrityError(m.entityType.String(), "metadata", err.Error())
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec, nil
}
