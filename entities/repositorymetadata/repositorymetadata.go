/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package repositorymetadata stores the metadata of repositories created through the
// portal: who created them, for which organization, and the initial team permissions.
package repositorymetadata

import (
	"context"
	"fmt"
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

// EntityType of repository metadata records.
const EntityType storagemodels.EntityType = "repositorymetadata"

// Table names. They must stay stable across deployments.
const (
	TableName    = "repositorymetadata"
	PartitionKey = "repositorymetadata"
)

// Lockdown states.
const (
	LockdownStateNone     = ""
	LockdownStateLocked   = "locked"
	LockdownStateUnlocked = "unlocked"
)

// TeamPermission grants a team a permission level on a new repository.
type TeamPermission struct {
	TeamID     string `metadata:"teamId" json:"teamId"`
	Permission string `metadata:"permission" json:"permission"`
}

// RepositoryMetadata describes a repository created through the portal.
type RepositoryMetadata struct {
	RepositoryID                string           `metadata:"repositoryId"`
	RepositoryName              string           `metadata:"repositoryName"`
	OrganizationID              string           `metadata:"organizationId"`
	OrganizationName            string           `metadata:"organizationName"`
	CreatedByCorporateID        string           `metadata:"createdByCorporateId"`
	CreatedByCorporateUsername  string           `metadata:"createdByCorporateUsername"`
	CreatedByThirdPartyUsername string           `metadata:"createdByThirdPartyUsername"`
	Created                     time.Time        `metadata:"created"`
	InitialTemplate             string           `metadata:"initialTemplate"`
	InitialLicense              string           `metadata:"initialLicense"`
	InitialTeamPermissions      []TeamPermission `metadata:"initialTeamPermissions"`
	LockdownState               string           `metadata:"lockdownState"`
	TransitionTicketID          string           `metadata:"transitionTicketId"`
	ReleaseReviewURL            string           `metadata:"releaseReviewUrl"`
}

// EntityID implements storagemodels.Entity.
func (m *RepositoryMetadata) EntityID() string { return m.RepositoryID }

// CreatedAt implements storagemodels.Timestamped.
func (m *RepositoryMetadata) CreatedAt() time.Time { return m.Created }

// ByOrganizationID selects repositories of one organization by id.
type ByOrganizationID struct {
	OrganizationID string
}

// Kind implements query.Fixed.
func (ByOrganizationID) Kind() query.Kind { return "repositorymetadata.byOrganizationId" }

// ByOrganizationName selects repositories of one organization by name.
type ByOrganizationName struct {
	OrganizationName string
}

// Kind implements query.Fixed.
func (ByOrganizationName) Kind() query.Kind { return "repositorymetadata.byOrganizationName" }

// TeamPermissionsCodec stores the initial team permissions as teamsCount plus
// teamid{n} and teamid{n}p columns.
func TeamPermissionsCodec() *codec.IndexedList[TeamPermission] {
	return &codec.IndexedList[TeamPermission]{
		CountColumn: "teamsCount",
		ItemColumns: []string{"teamid%d", "teamid%dp"},
		Split:       func(p TeamPermission) []string { return []string{p.TeamID, p.Permission} },
		Join: func(parts []string) (TeamPermission, error) {
			if parts[0] == "" {
				return TeamPermission{}, fmt.Errorf("empty team id")
			}
			return TeamPermission{TeamID: parts[0], Permission: parts[1]}, nil
		},
	}
}

var nativeColumns = map[string]string{
	"repositoryId":                "repositoryId",
	"repositoryName":              "repositoryName",
	"organizationId":              "organizationId",
	"organizationName":            "organizationName",
	"createdByCorporateId":        "createdByCorporateId",
	"createdByCorporateUsername":  "createdByCorporateUsername",
	"createdByThirdPartyUsername": "createdByThirdPartyUsername",
	"created":                     "created",
	"initialTemplate":             "initialTemplate",
	"initialLicense":              "initialLicense",
	"initialTeamPermissions":      "initialTeamPermissions",
	"lockdownState":               "lockdownState",
	"transitionTicketId":          "transitionTicketId",
	"releaseReviewUrl":            "releaseReviewUrl",
}

// Declaration returns the mappings of repository metadata for every backend.
func Declaration() registry.Declaration {
	return registry.Declaration{
		Type:    EntityType,
		IDField: "repositoryId",
		New:     func() storagemodels.Entity { return &RepositoryMetadata{} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:     TableName,
				Partition: PartitionKey,
				IDColumn:  "repoid",
				Columns: map[string]string{
					"repositoryId":                "repoid",
					"repositoryName":              "reponame",
					"organizationId":              "orgid",
					"organizationName":            "org",
					"createdByCorporateId":        "cid",
					"createdByCorporateUsername":  "cun",
					"createdByThirdPartyUsername": "tpun",
					"created":                     "created",
					"initialTemplate":             "template",
					"initialLicense":              "license",
					"initialTeamPermissions":      "",
					"lockdownState":               "lockdown",
					"transitionTicketId":          "ticket",
					"releaseReviewUrl":            "releaseReviewUrl",
				},
				Codecs: map[string]codec.FieldCodec{
					"initialTeamPermissions": TeamPermissionsCodec(),
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
	case ByOrganizationName:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "org", Value: tq.OrganizationName}}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case query.All:
		return relational.Query{}, nil
	case ByOrganizationID:
		return relational.Query{Contains: map[string]any{"organizationId": tq.OrganizationID}}, nil
	case ByOrganizationName:
		return relational.Query{Contains: map[string]any{"organizationName": tq.OrganizationName}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case query.All:
		return translate.All(), nil
	case ByOrganizationID:
		return translate.Equals(map[string]any{"organizationId": tq.OrganizationID}), nil
	case ByOrganizationName:
		return translate.Equals(map[string]any{"organizationName": tq.OrganizationName}), nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}

// Provider reads and writes repository metadata.
type Provider struct {
	*metadatastore.Provider[*RepositoryMetadata]
}

// NewProvider creates the repository metadata provider over store.
func NewProvider(store *metadatastore.Store) (*Provider, error) {
	p, err := metadatastore.NewProvider[*RepositoryMetadata](store, EntityType)
	if err != nil {
		return nil, err
	}
	return &Provider{Provider: p}, nil
}

// Create stores new repository metadata, stamping Created when unset.
func (p *Provider) Create(ctx context.Context, m *RepositoryMetadata) error {
	if m != nil && m.Created.IsZero() {
		m.Created = time.Now().UTC()
	}
	return p.Provider.Create(ctx, m)
}

// QueryAll returns the metadata of every repository.
func (p *Provider) QueryAll(ctx context.Context) ([]*RepositoryMetadata, error) {
	return p.Query(ctx, query.All{})
}

// QueryByOrganizationID returns the repositories of an organization.
func (p *Provider) QueryByOrganizationID(ctx context.Context, organizationID string) ([]*RepositoryMetadata, error) {
	return p.Query(ctx, ByOrganizationID{OrganizationID: organizationID})
}

// QueryByOrganizationName returns the repositories of an organization.
func (p *Provider) QueryByOrganizationName(ctx context.Context, organizationName string) ([]*RepositoryMetadata, error) {
	return p.Query(ctx, ByOrganizationName{OrganizationName: organizationName})
}
