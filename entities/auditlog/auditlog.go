/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package auditlog stores the audit trail of portal operations on organizations,
// repositories and teams.
package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/entities/internal/translate"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// EntityType of audit log records.
const EntityType storagemodels.EntityType = "auditlogrecord"

// Table names. They must stay stable across deployments.
const (
	TableName    = "auditlog"
	PartitionKey = "auditlog"
)

// Event scopes.
const (
	ScopeOrganization = "organization"
	ScopeRepository   = "repository"
	ScopeTeam         = "team"
)

// Record is one audited operation.
type Record struct {
	RecordID                string    `metadata:"recordId"`
	Created                 time.Time `metadata:"created"`
	ActorCorporateID        string    `metadata:"actorCorporateId"`
	ActorCorporateUsername  string    `metadata:"actorCorporateUsername"`
	ActorThirdPartyID       string    `metadata:"actorThirdPartyId"`
	ActorThirdPartyUsername string    `metadata:"actorThirdPartyUsername"`
	EventScope              string    `metadata:"eventScope"`
	EventType               string    `metadata:"eventType"`
	EventAction             string    `metadata:"eventAction"`
	OrganizationID          string    `metadata:"organizationId"`
	OrganizationName        string    `metadata:"organizationName"`
	RepositoryID            string    `metadata:"repositoryId"`
	RepositoryName          string    `metadata:"repositoryName"`
	TeamID                  string    `metadata:"teamId"`
	TeamName                string    `metadata:"teamName"`
	Undoable                bool      `metadata:"undoable"`
}

// EntityID implements storagemodels.Entity.
func (r *Record) EntityID() string { return r.RecordID }

// CreatedAt implements storagemodels.Timestamped.
func (r *Record) CreatedAt() time.Time { return r.Created }

// UndoCandidatesByActor selects the undoable operations performed by one corporate user.
type UndoCandidatesByActor struct {
	CorporateID string
}

// Kind implements query.Fixed.
func (UndoCandidatesByActor) Kind() query.Kind { return "auditlog.undoCandidatesByActor" }

// ByTeamID selects operations on one team.
type ByTeamID struct {
	TeamID string
}

// Kind implements query.Fixed.
func (ByTeamID) Kind() query.Kind { return "auditlog.byTeamId" }

// ByRepositoryID selects operations on one repository.
type ByRepositoryID struct {
	RepositoryID string
}

// Kind implements query.Fixed.
func (ByRepositoryID) Kind() query.Kind { return "auditlog.byRepositoryId" }

// ByOrganizationID selects operations within one organization.
type ByOrganizationID struct {
	OrganizationID string
}

// Kind implements query.Fixed.
func (ByOrganizationID) Kind() query.Kind { return "auditlog.byOrganizationId" }

var nativeColumns = map[string]string{
	"recordId":                "recordId",
	"created":                 "created",
	"actorCorporateId":        "actorCorporateId",
	"actorCorporateUsername":  "actorCorporateUsername",
	"actorThirdPartyId":       "actorThirdPartyId",
	"actorThirdPartyUsername": "actorThirdPartyUsername",
	"eventScope":              "eventScope",
	"eventType":               "eventType",
	"eventAction":             "eventAction",
	"organizationId":          "organizationId",
	"organizationName":        "organizationName",
	"repositoryId":            "repositoryId",
	"repositoryName":          "repositoryName",
	"teamId":                  "teamId",
	"teamName":                "teamName",
	"undoable":                "undoable",
}

// Declaration returns the mappings of audit log records for every backend.
func Declaration() registry.Declaration {
	return registry.Declaration{
		Type:    EntityType,
		IDField: "recordId",
		New:     func() storagemodels.Entity { return &Record{} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:     TableName,
				Partition: PartitionKey,
				Columns: map[string]string{
					"created":                 "created",
					"actorCorporateId":        "aid",
					"actorCorporateUsername":  "aun",
					"actorThirdPartyId":       "atpid",
					"actorThirdPartyUsername": "atpun",
					"eventScope":              "scope",
					"eventType":               "type",
					"eventAction":             "action",
					"organizationId":          "orgid",
					"organizationName":        "org",
					"repositoryId":            "repoid",
					"repositoryName":          "repo",
					"teamId":                  "teamid",
					"teamName":                "team",
					"undoable":                "undoable",
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
	case UndoCandidatesByActor:
		return ddb.TableQuery{Equals: []ddb.Predicate{
			{Column: "aid", Value: tq.CorporateID},
			{Column: "undoable", Value: true},
		}}, nil
	case ByTeamID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "teamid", Value: tq.TeamID}}}, nil
	case ByRepositoryID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "repoid", Value: tq.RepositoryID}}}, nil
	case ByOrganizationID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "orgid", Value: tq.OrganizationID}}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case UndoCandidatesByActor:
		return relational.Query{Contains: map[string]any{"actorCorporateId": tq.CorporateID, "undoable": true}}, nil
	case ByTeamID:
		return relational.Query{Contains: map[string]any{"teamId": tq.TeamID}}, nil
	case ByRepositoryID:
		return relational.Query{Contains: map[string]any{"repositoryId": tq.RepositoryID}}, nil
	case ByOrganizationID:
		return relational.Query{Contains: map[string]any{"organizationId": tq.OrganizationID}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case UndoCandidatesByActor:
		return translate.Equals(map[string]any{"actorCorporateId": tq.CorporateID, "undoable": true}), nil
	case ByTeamID:
		return translate.Equals(map[string]any{"teamId": tq.TeamID}), nil
	case ByRepositoryID:
		return translate.Equals(map[string]any{"repositoryId": tq.RepositoryID}), nil
	case ByOrganizationID:
		return translate.Equals(map[string]any{"organizationId": tq.OrganizationID}), nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}

// Provider reads and writes audit log records.
type Provider struct {
	*metadatastore.Provider[*Record]
	newID func() string
	now   func() time.Time
}

// NewProvider creates the audit log provider over store.
func NewProvider(store *metadatastore.Store) (*Provider, error) {
	p, err := metadatastore.NewProvider[*Record](store, EntityType)
	if err != nil {
		return nil, err
	}
	return &Provider{
		Provider: p,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create stores a new record. A missing id is assigned a random UUID and a missing
// timestamp the current time.
func (p *Provider) Create(ctx context.Context, r *Record) error {
	if r != nil {
		if r.RecordID == "" {
			r.RecordID = p.newID()
		}
		if r.Created.IsZero() {
			r.Created = p.now()
		}
	}
	return p.Provider.Create(ctx, r)
}

// QueryUndoCandidates returns the undoable operations performed by a corporate user.
func (p *Provider) QueryUndoCandidates(ctx context.Context, corporateID string) ([]*Record, error) {
	return p.Query(ctx, UndoCandidatesByActor{CorporateID: corporateID})
}

// QueryByTeamID returns the operations on a team.
func (p *Provider) QueryByTeamID(ctx context.Context, teamID string) ([]*Record, error) {
	return p.Query(ctx, ByTeamID{TeamID: teamID})
}

// QueryByRepositoryID returns the operations on a repository.
func (p *Provider) QueryByRepositoryID(ctx context.Context, repositoryID string) ([]*Record, error) {
	return p.Query(ctx, ByRepositoryID{RepositoryID: repositoryID})
}

// QueryByOrganizationID returns the operations within an organization.
func (p *Provider) QueryByOrganizationID(ctx context.Context, organizationID string) ([]*Record, error) {
	return p.Query(ctx, ByOrganizationID{OrganizationID: organizationID})
}
