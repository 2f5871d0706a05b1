/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package orgmembercache caches organization membership looked up from the hosting
// service, one entry per organization and user.
package orgmembercache

import (
	"context"
	"strings"
	"time"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/entities/internal/translate"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// EntityType of organization member cache entries.
const EntityType storagemodels.EntityType = "organizationmembercache"

// Table names. They must stay stable across deployments.
const (
	TableName    = "organizationmembercache"
	PartitionKey = "orgmembercache"
)

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Entry records that a user belongs to an organization.
type Entry struct {
	UniqueID       string    `metadata:"uniqueId"`
	OrganizationID string    `metadata:"organizationId"`
	UserID         string    `metadata:"userId"`
	Role           string    `metadata:"role"`
	Refreshed      time.Time `metadata:"refreshed"`
}

// EntityID implements storagemodels.Entity.
func (e *Entry) EntityID() string { return e.UniqueID }

// UniqueID composes the identifier of the entry for organizationID and userID.
func UniqueID(organizationID, userID string) string {
	return organizationID + ":" + userID
}

// NewEntry creates an entry refreshed now.
func NewEntry(organizationID, userID, role string) *Entry {
	return &Entry{
		UniqueID:       UniqueID(organizationID, userID),
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		Refreshed:      time.Now().UTC(),
	}
}

// ByOrganizationID selects the cached members of one organization.
type ByOrganizationID struct {
	OrganizationID string
}

// Kind implements query.Fixed.
func (ByOrganizationID) Kind() query.Kind { return "organizationmembercache.byOrganizationId" }

// ByUserID selects the cached organizations of one user.
type ByUserID struct {
	UserID string
}

// Kind implements query.Fixed.
func (ByUserID) Kind() query.Kind { return "organizationmembercache.byUserId" }

var nativeColumns = map[string]string{
	"uniqueId":       "uniqueId",
	"organizationId": "organizationId",
	"userId":         "userId",
	"role":           "role",
	"refreshed":      "refreshed",
}

// Declaration returns the mappings of member cache entries for every backend.
func Declaration() registry.Declaration {
	return registry.Declaration{
		Type:    EntityType,
		IDField: "uniqueId",
		New:     func() storagemodels.Entity { return &Entry{} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:     TableName,
				Partition: PartitionKey,
				Columns: map[string]string{
					"organizationId": "orgid",
					"userId":         "userid",
					"role":           "role",
					"refreshed":      "refreshed",
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
	case ByOrganizationID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "orgid", Value: tq.OrganizationID}}}, nil
	case ByUserID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "userid", Value: tq.UserID}}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case query.All:
		return relational.Query{}, nil
	case ByOrganizationID:
		return relational.Query{Contains: map[string]any{"organizationId": tq.OrganizationID}}, nil
	case ByUserID:
		return relational.Query{Contains: map[string]any{"userId": tq.UserID}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case query.All:
		return translate.All(), nil
	case ByOrganizationID:
		return translate.Equals(map[string]any{"organizationId": tq.OrganizationID}), nil
	case ByUserID:
		return translate.Equals(map[string]any{"userId": tq.UserID}), nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}

// Provider reads and writes member cache entries.
type Provider struct {
	*metadatastore.Provider[*Entry]
}

// NewProvider creates the member cache provider over store.
func NewProvider(store *metadatastore.Store) (*Provider, error) {
	p, err := metadatastore.NewProvider[*Entry](store, EntityType)
	if err != nil {
		return nil, err
	}
	return &Provider{Provider: p}, nil
}

// Create stores a new entry. The identifier must match its organization and user.
func (p *Provider) Create(ctx context.Context, e *Entry) error {
	if e != nil && e.UniqueID != UniqueID(e.OrganizationID, e.UserID) {
		return errors.NewValidationError("uniqueId", "identifier must be organizationId:userId")
	}
	return p.Provider.Create(ctx, e)
}

// Upsert stores e, replacing the cached entry of the same organization and user.
func (p *Provider) Upsert(ctx context.Context, e *Entry) error {
	err := p.Update(ctx, e)
	if errors.IsNotFound(err) {
		return p.Create(ctx, e)
	}
	return err
}

// GetMembership returns the cached entry of userID in organizationID.
func (p *Provider) GetMembership(ctx context.Context, organizationID, userID string) (*Entry, error) {
	return p.Get(ctx, UniqueID(organizationID, userID))
}

// QueryAll returns every cached entry.
func (p *Provider) QueryAll(ctx context.Context) ([]*Entry, error) {
	return p.Query(ctx, query.All{})
}

// QueryByOrganizationID returns the cached members of an organization.
func (p *Provider) QueryByOrganizationID(ctx context.Context, organizationID string) ([]*Entry, error) {
	return p.Query(ctx, ByOrganizationID{OrganizationID: organizationID})
}

// QueryByUserID returns the cached organizations of a user.
func (p *Provider) QueryByUserID(ctx context.Context, userID string) ([]*Entry, error) {
	return p.Query(ctx, ByUserID{UserID: userID})
}

// SplitUniqueID splits an identifier into organization and user ids.
func SplitUniqueID(id string) (organizationID, userID string, ok bool) {
	return strings.Cut(id, ":")
}
