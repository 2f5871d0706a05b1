/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package orgsetting stores per-organization portal settings and feature flags.
package orgsetting

import (
	"context"
	"slices"
	"time"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/entities/internal/translate"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// EntityType of organization settings.
const EntityType storagemodels.EntityType = "organizationsetting"

// Table names. They must stay stable across deployments.
const (
	TableName    = "organizationsettings"
	PartitionKey = "organizationsetting"
)

// Setting holds the portal configuration of one organization.
type Setting struct {
	OrganizationID       string    `metadata:"organizationId"`
	OrganizationName     string    `metadata:"organizationName"`
	Active               bool      `metadata:"active"`
	Features             []string  `metadata:"features"`
	PortalDescription    string    `metadata:"portalDescription"`
	SetupByCorporateID   string    `metadata:"setupByCorporateId"`
	SetupByCorporateName string    `metadata:"setupByCorporateUsername"`
	Updated              time.Time `metadata:"updated"`
}

// EntityID implements storagemodels.Entity.
func (s *Setting) EntityID() string { return s.OrganizationID }

// HasFeature reports whether feature is enabled.
func (s *Setting) HasFeature(feature string) bool {
	return slices.Contains(s.Features, feature)
}

// EnableFeature adds feature once.
func (s *Setting) EnableFeature(feature string) {
	if !s.HasFeature(feature) {
		s.Features = append(s.Features, feature)
	}
}

// DisableFeature removes feature.
func (s *Setting) DisableFeature(feature string) {
	s.Features = slices.DeleteFunc(s.Features, func(f string) bool { return f == feature })
	if len(s.Features) == 0 {
		s.Features = nil
	}
}

// Active selects the settings of active organizations.
type Active struct{}

// Kind implements query.Fixed.
func (Active) Kind() query.Kind { return "organizationsetting.active" }

// ByOrganizationName selects the settings of one organization by name.
type ByOrganizationName struct {
	OrganizationName string
}

// Kind implements query.Fixed.
func (ByOrganizationName) Kind() query.Kind { return "organizationsetting.byOrganizationName" }

var nativeColumns = map[string]string{
	"organizationId":           "organizationId",
	"organizationName":         "organizationName",
	"active":                   "active",
	"features":                 "features",
	"portalDescription":        "portalDescription",
	"setupByCorporateId":       "setupByCorporateId",
	"setupByCorporateUsername": "setupByCorporateUsername",
	"updated":                  "updated",
}

// Declaration returns the mappings of organization settings for every backend.
func Declaration() registry.Declaration {
	return registry.Declaration{
		Type:    EntityType,
		IDField: "organizationId",
		New:     func() storagemodels.Entity { return &Setting{} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:     TableName,
				Partition: PartitionKey,
				IDColumn:  "orgid",
				Columns: map[string]string{
					"organizationId":           "orgid",
					"organizationName":         "org",
					"active":                   "active",
					"features":                 "",
					"portalDescription":        "description",
					"setupByCorporateId":       "setupcid",
					"setupByCorporateUsername": "setupcun",
					"updated":                  "updated",
				},
				Codecs: map[string]codec.FieldCodec{
					"features": codec.Strings("featuresCount", "feature%d"),
				},
				Query: ddb.Translator(translateTable),
			},
			storagemodels.BackendRelational: {
				Table:   TableName,
				Columns: nativeColumns,
				Query:   relational.Translator(translateRelational),
			},
			storagemodels.BackendMemory: {
				Columns: nativeColumns,
				Query:   memory.Translator(translateMemory),
			},
		},
	}
}

func translateTable(q query.Fixed) (ddb.TableQuery, error) {
	switch tq := q.(type) {
	case query.All:
		return ddb.TableQuery{}, nil
	case Active:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "active", Value: true}}}, nil
	case ByOrganizationName:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "org", Value: tq.OrganizationName}}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case query.All:
		return relational.Query{}, nil
	case Active:
		return relational.Query{Contains: map[string]any{"active": true}}, nil
	case ByOrganizationName:
		return relational.Query{Contains: map[string]any{"organizationName": tq.OrganizationName}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case query.All:
		return translate.All(), nil
	case Active:
		return translate.Equals(map[string]any{"active": true}), nil
	case ByOrganizationName:
		return translate.Equals(map[string]any{"organizationName": tq.OrganizationName}), nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}

// Provider reads and writes organization settings.
type Provider struct {
	*metadatastore.Provider[*Setting]
}

// NewProvider creates the organization settings provider over store.
func NewProvider(store *metadatastore.Store) (*Provider, error) {
	p, err := metadatastore.NewProvider[*Setting](store, EntityType)
	if err != nil {
		return nil, err
	}
	return &Provider{Provider: p}, nil
}

// Update replaces the settings of an organization and stamps Updated.
func (p *Provider) Update(ctx context.Context, s *Setting) error {
	if s != nil {
		s.Updated = time.Now().UTC()
	}
	return p.Provider.Update(ctx, s)
}

// QueryAll returns the settings of every organization.
func (p *Provider) QueryAll(ctx context.Context) ([]*Setting, error) {
	return p.Query(ctx, query.All{})
}

// QueryActive returns the settings of active organizations.
func (p *Provider) QueryActive(ctx context.Context) ([]*Setting, error) {
	return p.Query(ctx, Active{})
}

// GetByOrganizationName returns the settings of an organization by name.
func (p *Provider) GetByOrganizationName(ctx context.Context, organizationName string) (*Setting, error) {
	return p.QueryOne(ctx, ByOrganizationName{OrganizationName: organizationName})
}
