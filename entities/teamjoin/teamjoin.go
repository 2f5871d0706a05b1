/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package teamjoin stores requests by corporate users to join organization teams, and
// the approval decisions taken on them.
//
// Table rows are partitioned per organization, so the table backend cannot read a request
// by id alone; providers look requests up through ByID.
package teamjoin

import (
	"context"
	"time"

	"github.com/google/uuid"

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

// EntityType of team join requests.
const EntityType storagemodels.EntityType = "teamjoinrequest"

// Table names. They must stay stable across deployments.
const (
	TableName        = "approvals"
	PartitionPattern = "approval#{organizationName}"
)

// Decisions.
const (
	DecisionApprove = "approve"
	DecisionDeny    = "deny"
)

// Request asks for membership of a team. Active requests await a decision.
type Request struct {
	ApprovalID            string    `metadata:"approvalId"`
	OrganizationName      string    `metadata:"organizationName"`
	TeamID                string    `metadata:"teamId"`
	TeamName              string    `metadata:"teamName"`
	CorporateID           string    `metadata:"corporateId"`
	CorporateUsername     string    `metadata:"corporateUsername"`
	CorporateDisplayName  string    `metadata:"corporateDisplayName"`
	ThirdPartyID          string    `metadata:"thirdPartyId"`
	ThirdPartyUsername    string    `metadata:"thirdPartyUsername"`
	Justification         string    `metadata:"justification"`
	Active                bool      `metadata:"active"`
	Created               time.Time `metadata:"created"`
	Decision              string    `metadata:"decision"`
	DecisionMessage       string    `metadata:"decisionMessage"`
	DecisionByCorporateID string    `metadata:"decisionByCorporateId"`
	DecisionTime          time.Time `metadata:"decisionTime"`
	MailSent              bool      `metadata:"mailSent,transient"`
}

// EntityID implements storagemodels.Entity.
func (r *Request) EntityID() string { return r.ApprovalID }

// CreatedAt implements storagemodels.Timestamped.
func (r *Request) CreatedAt() time.Time { return r.Created }

// ByID looks a request up by approval id. It is the id query of the type.
type ByID struct {
	ApprovalID string
}

// Kind implements query.Fixed.
func (ByID) Kind() query.Kind { return "teamjoinrequest.byId" }

// OpenByTeamIDs selects the active requests for any of the teams.
type OpenByTeamIDs struct {
	TeamIDs []string
}

// Kind implements query.Fixed.
func (OpenByTeamIDs) Kind() query.Kind { return "teamjoinrequest.openByTeamIds" }

// OpenByCorporateID selects the active requests of one corporate user.
type OpenByCorporateID struct {
	CorporateID string
}

// Kind implements query.Fixed.
func (OpenByCorporateID) Kind() query.Kind { return "teamjoinrequest.openByCorporateId" }

// AllOpen selects every active request.
type AllOpen struct{}

// Kind implements query.Fixed.
func (AllOpen) Kind() query.Kind { return "teamjoinrequest.allOpen" }

var nativeColumns = map[string]string{
	"approvalId":            "approvalId",
	"organizationName":      "organizationName",
	"teamId":                "teamId",
	"teamName":              "teamName",
	"corporateId":           "corporateId",
	"corporateUsername":     "corporateUsername",
	"corporateDisplayName":  "corporateDisplayName",
	"thirdPartyId":          "thirdPartyId",
	"thirdPartyUsername":    "thirdPartyUsername",
	"justification":         "justification",
	"active":                "active",
	"created":               "created",
	"decision":              "decision",
	"decisionMessage":       "decisionMessage",
	"decisionByCorporateId": "decisionByCorporateId",
	"decisionTime":          "decisionTime",
}

// Declaration returns the mappings of team join requests for every backend.
func Declaration() registry.Declaration {
	return registry.Declaration{
		Type:    EntityType,
		IDField: "approvalId",
		New:     func() storagemodels.Entity { return &Request{} },
		IDQuery: func(id string) query.Fixed { return ByID{ApprovalID: id} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:     TableName,
				Partition: PartitionPattern,
				IDColumn:  "approvalid",
				Columns: map[string]string{
					"approvalId":            "approvalid",
					"organizationName":      "org",
					"teamId":                "teamid",
					"teamName":              "teamname",
					"corporateId":           "cid",
					"corporateUsername":     "cun",
					"corporateDisplayName":  "cdn",
					"thirdPartyId":          "tpid",
					"thirdPartyUsername":    "tpun",
					"justification":         "justification",
					"active":                "active",
					"created":               "created",
					"decision":              "decision",
					"decisionMessage":       "decisionMessage",
					"decisionByCorporateId": "decisionCid",
					"decisionTime":          "decisionTime",
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
	case ByID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "approvalid", Value: tq.ApprovalID}}}, nil
	case OpenByTeamIDs:
		return ddb.TableQuery{
			Equals: []ddb.Predicate{{Column: "active", Value: true}},
			AnyOf:  &ddb.AnyOf{Column: "teamid", Values: translate.Values(tq.TeamIDs)},
		}, nil
	case OpenByCorporateID:
		return ddb.TableQuery{Equals: []ddb.Predicate{
			{Column: "active", Value: true},
			{Column: "cid", Value: tq.CorporateID},
		}}, nil
	case AllOpen:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "active", Value: true}}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case ByID:
		return relational.Query{Contains: map[string]any{"approvalId": tq.ApprovalID}}, nil
	case OpenByTeamIDs:
		return relational.Query{
			Contains: map[string]any{"active": true},
			In:       &relational.In{Column: "teamId", Values: translate.Values(tq.TeamIDs)},
		}, nil
	case OpenByCorporateID:
		return relational.Query{Contains: map[string]any{"active": true, "corporateId": tq.CorporateID}}, nil
	case AllOpen:
		return relational.Query{Contains: map[string]any{"active": true}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case ByID:
		return func(r *storagemodels.Record) bool { return r.EntityID == tq.ApprovalID }, nil
	case OpenByTeamIDs:
		return translate.In("teamId", translate.Values(tq.TeamIDs), translate.Equals(map[string]any{"active": true})), nil
	case OpenByCorporateID:
		return translate.Equals(map[string]any{"active": true, "corporateId": tq.CorporateID}), nil
	case AllOpen:
		return translate.Equals(map[string]any{"active": true}), nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}

// Provider reads and writes team join requests.
type Provider struct {
	*metadatastore.Provider[*Request]
}

// NewProvider creates the team join request provider over store.
func NewProvider(store *metadatastore.Store) (*Provider, error) {
	p, err := metadatastore.NewProvider[*Request](store, EntityType)
	if err != nil {
		return nil, err
	}
	return &Provider{Provider: p}, nil
}

// Create stores a new active request, assigning an approval id and creation time when
// unset.
func (p *Provider) Create(ctx context.Context, r *Request) error {
	if r != nil {
		if r.ApprovalID == "" {
			r.ApprovalID = uuid.NewString()
		}
		if r.Created.IsZero() {
			r.Created = time.Now().UTC()
		}
		if r.Decision == "" {
			r.Active = true
		}
	}
	return p.Provider.Create(ctx, r)
}

// Decide closes an active request with decision.
func (p *Provider) Decide(ctx context.Context, approvalID, decision, message, deciderCorporateID string) (*Request, error) {
	if decision != DecisionApprove && decision != DecisionDeny {
		return nil, errors.NewValidationError("decision", "decision must be approve or deny")
	}
	r, err := p.Get(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if !r.Active {
		return nil, errors.NewValidationError("active", "request is already decided")
	}
	r.Active = false
	r.Decision = decision
	r.DecisionMessage = message
	r.DecisionByCorporateID = deciderCorporateID
	r.DecisionTime = time.Now().UTC()
	if err := p.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// QueryOpenByTeamIDs returns the active requests for any of the teams.
func (p *Provider) QueryOpenByTeamIDs(ctx context.Context, teamIDs []string) ([]*Request, error) {
	return p.Query(ctx, OpenByTeamIDs{TeamIDs: teamIDs})
}

// QueryOpenByCorporateID returns the active requests of a corporate user.
func (p *Provider) QueryOpenByCorporateID(ctx context.Context, corporateID string) ([]*Request, error) {
	return p.Query(ctx, OpenByCorporateID{CorporateID: corporateID})
}

// QueryAllOpen returns every active request.
func (p *Provider) QueryAllOpen(ctx context.Context) ([]*Request, error) {
	return p.Query(ctx, AllOpen{})
}
