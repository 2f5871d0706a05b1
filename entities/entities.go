/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package entities declares every entity type of the portal and builds their providers.
package entities

import (
	"context"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/entities/auditlog"
	"github.com/suparena/metadatastore/entities/orgmembercache"
	"github.com/suparena/metadatastore/entities/orgsetting"
	"github.com/suparena/metadatastore/entities/repositorymetadata"
	"github.com/suparena/metadatastore/entities/teamjoin"
	"github.com/suparena/metadatastore/entities/token"
	"github.com/suparena/metadatastore/registry"
)

// Declarations returns the declaration of every entity type.
func Declarations() []registry.Declaration {
	return []registry.Declaration{
		repositorymetadata.Declaration(),
		auditlog.Declaration(),
		orgsetting.Declaration(),
		token.Declaration(),
		teamjoin.Declaration(),
		orgmembercache.Declaration(),
	}
}

// RegisterAll declares every entity type on reg. Any error must abort startup.
func RegisterAll(reg *registry.Registry) error {
	for _, d := range Declarations() {
		if err := reg.Declare(d); err != nil {
			return err
		}
	}
	return nil
}

// Providers bundles the provider of every entity type.
type Providers struct {
	store *metadatastore.Store

	RepositoryMetadata   *repositorymetadata.Provider
	AuditLog             *auditlog.Provider
	OrganizationSettings *orgsetting.Provider
	Tokens               *token.Provider
	TeamJoinRequests     *teamjoin.Provider
	MemberCache          *orgmembercache.Provider
}

// NewProviders builds every provider over store.
func NewProviders(store *metadatastore.Store) (*Providers, error) {
	p := &Providers{store: store}
	var err error
	if p.RepositoryMetadata, err = repositorymetadata.NewProvider(store); err != nil {
		return nil, err
	}
	if p.AuditLog, err = auditlog.NewProvider(store); err != nil {
		return nil, err
	}
	if p.OrganizationSettings, err = orgsetting.NewProvider(store); err != nil {
		return nil, err
	}
	if p.Tokens, err = token.NewProvider(store); err != nil {
		return nil, err
	}
	if p.TeamJoinRequests, err = teamjoin.NewProvider(store); err != nil {
		return nil, err
	}
	if p.MemberCache, err = orgmembercache.NewProvider(store); err != nil {
		return nil, err
	}
	return p, nil
}

// Initialize prepares the backing stores of every provider.
func (p *Providers) Initialize(ctx context.Context) error {
	return p.store.Initialize(ctx)
}
