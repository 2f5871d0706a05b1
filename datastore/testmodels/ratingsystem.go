/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels declares a sample entity type mapped onto every backend, for adapter
// and provider tests.
package testmodels

import (
	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// EntityType of RatingSystem records.
const EntityType storagemodels.EntityType = "ratingsystem"

// RatingSystem is a club rating system.
type RatingSystem struct {
	ID               string   `metadata:"ratingSystemId"`
	Name             string   `metadata:"name"`
	OrganizationName string   `metadata:"organizationName"`
	SiteURL          string   `metadata:"siteUrl"`
	Active           bool     `metadata:"active"`
	Levels           []string `metadata:"levels"`
	Rank             int      `metadata:"rank"`
	Draft            bool     `metadata:"draft,transient"`
}

// EntityID implements storagemodels.Entity.
func (r *RatingSystem) EntityID() string { return r.ID }

// ByOrganization selects rating systems of one organization.
type ByOrganization struct {
	Name string
}

// Kind implements query.Fixed.
func (ByOrganization) Kind() query.Kind { return "ratingsystem.byOrganization" }

// ByOrganizations selects rating systems of any of the organizations.
type ByOrganizations struct {
	Names []string
}

// Kind implements query.Fixed.
func (ByOrganizations) Kind() query.Kind { return "ratingsystem.byOrganizations" }

// ActiveByOrganization selects active rating systems of one organization.
type ActiveByOrganization struct {
	Name string
}

// Kind implements query.Fixed.
func (ActiveByOrganization) Kind() query.Kind { return "ratingsystem.activeByOrganization" }

// Unknown is a descriptor no translator accepts.
type Unknown struct{}

// Kind implements query.Fixed.
func (Unknown) Kind() query.Kind { return "ratingsystem.unknown" }

// Options tweaks the declaration for tests that need a different table layout.
type Options struct {
	// DerivedPartition partitions table rows by organization, disabling point queries on
	// the table backend.
	DerivedPartition bool
}

// Declaration returns the mapping of RatingSystem.
func Declaration(opts Options) registry.Declaration {
	partition := "ratingsystem"
	if opts.DerivedPartition {
		partition = "ratingsystem#{organizationName}"
	}
	native := map[string]string{
		"ratingSystemId":   "ratingSystemId",
		"name":             "name",
		"organizationName": "organizationName",
		"siteUrl":          "siteUrl",
		"active":           "active",
		"levels":           "levels",
		"rank":             "rank",
	}

	return registry.Declaration{
		Type:    EntityType,
		IDField: "ratingSystemId",
		New:     func() storagemodels.Entity { return &RatingSystem{} },
		IDQuery: func(id string) query.Fixed { return query.ByID{ID: id} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:        "ratings",
				Partition:    partition,
				RowKeyPrefix: "rs_",
				IDColumn:     "rsid",
				Columns: map[string]string{
					"ratingSystemId":   "rsid",
					"name":             "name",
					"organizationName": "orgname",
					"siteUrl":          "site",
					"active":           "active",
					"levels":           "",
					"rank":             "rank",
				},
				Codecs: map[string]codec.FieldCodec{
					"levels": codec.Strings("levelsCount", "level%d"),
				},
				Query: ddb.Translator(translateTable),
			},
			storagemodels.BackendRelational: {
				Table:   "ratings",
				Columns: native,
				Query:   relational.Translator(translateRelational),
			},
			storagemodels.BackendMemory: {
				Columns: native,
				Query:   memory.Translator(translateMemory),
			},
		},
	}
}

// Register declares RatingSystem on reg.
func Register(reg *registry.Registry, opts Options) error {
	return reg.Declare(Declaration(opts))
}

func translateTable(q query.Fixed) (ddb.TableQuery, error) {
	switch tq := q.(type) {
	case query.All:
		return ddb.TableQuery{}, nil
	case query.ByID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "rsid", Value: tq.ID}}}, nil
	case ByOrganization:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "orgname", Value: tq.Name}}}, nil
	case ActiveByOrganization:
		return ddb.TableQuery{Equals: []ddb.Predicate{
			{Column: "orgname", Value: tq.Name},
			{Column: "active", Value: true},
		}}, nil
	case ByOrganizations:
		values := make([]any, len(tq.Names))
		for i, n := range tq.Names {
			values[i] = n
		}
		return ddb.TableQuery{AnyOf: &ddb.AnyOf{Column: "orgname", Values: values}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case query.All:
		return relational.Query{}, nil
	case query.ByID:
		return relational.Query{Contains: map[string]any{"ratingSystemId": tq.ID}}, nil
	case ByOrganization:
		return relational.Query{Contains: map[string]any{"organizationName": tq.Name}}, nil
	case ActiveByOrganization:
		return relational.Query{Contains: map[string]any{"organizationName": tq.Name, "active": true}}, nil
	case ByOrganizations:
		values := make([]any, len(tq.Names))
		for i, n := range tq.Names {
			values[i] = n
		}
		return relational.Query{In: &relational.In{Column: "organizationName", Values: values}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case query.All:
		return nil, nil
	case query.ByID:
		return func(r *storagemodels.Record) bool { return r.EntityID == tq.ID }, nil
	case ByOrganization:
		return func(r *storagemodels.Record) bool { return r.Fields["organizationName"] == tq.Name }, nil
	case ActiveByOrganization:
		return func(r *storagemodels.Record) bool {
			return r.Fields["organizationName"] == tq.Name && r.Fields["active"] == true
		}, nil
	case ByOrganizations:
		set := make(map[any]bool, len(tq.Names))
		for _, n := range tq.Names {
			set[n] = true
		}
		return func(r *storagemodels.Record) bool { return set[r.Fields["organizationName"]] }, nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}
