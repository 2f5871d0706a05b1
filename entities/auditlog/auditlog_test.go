/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auditlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/entities/auditlog"
	"github.com/suparena/metadatastore/entities/internal/entitytest"
)

func event(actor, orgID, repoID, teamID string, undoable bool) *auditlog.Record {
	r := &auditlog.Record{
		ActorCorporateID:       actor,
		ActorCorporateUsername: actor + "@contoso.com",
		EventScope:             auditlog.ScopeOrganization,
		EventType:              "membership",
		EventAction:            "added",
		OrganizationID:         orgID,
		OrganizationName:       "org-" + orgID,
		RepositoryID:           repoID,
		TeamID:                 teamID,
		Undoable:               undoable,
	}
	if repoID != "" {
		r.EventScope = auditlog.ScopeRepository
	}
	if teamID != "" {
		r.EventScope = auditlog.ScopeTeam
	}
	return r
}

func TestCreateAssignsIdentity(t *testing.T) {
	entitytest.Each(t, func(t *testing.T, store *metadatastore.Store) {
		ctx := context.Background()
		p, err := auditlog.NewProvider(store)
		require.NoError(t, err)

		r := event("alice", "1", "", "", false)
		require.NoError(t, p.Create(ctx, r))
		_, err = uuid.Parse(r.RecordID)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), r.Created, time.Minute)

		got, err := p.Get(ctx, r.RecordID)
		require.NoError(t, err)
		assert.Equal(t, r.RecordID, got.RecordID)
		assert.Equal(t, "membership", got.EventType)
		assert.True(t, r.Created.Equal(got.Created))

		other := event("alice", "1", "", "", false)
		require.NoError(t, p.Create(ctx, other))
		assert.NotEqual(t, r.RecordID, other.RecordID)
	}, auditlog.Declaration())
}

func TestAuditQueries(t *testing.T) {
	entitytest.Each(t, func(t *testing.T, store *metadatastore.Store) {
		ctx := context.Background()
		p, err := auditlog.NewProvider(store)
		require.NoError(t, err)

		for _, r := range []*auditlog.Record{
			event("alice", "1", "r1", "", true),
			event("alice", "1", "", "t1", false),
			event("alice", "2", "", "t1", true),
			event("bob", "2", "r1", "", true),
		} {
			require.NoError(t, p.Create(ctx, r))
		}

		undo, err := p.QueryUndoCandidates(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, undo, 2)
		for _, r := range undo {
			assert.True(t, r.Undoable)
			assert.Equal(t, "alice", r.ActorCorporateID)
		}

		byTeam, err := p.QueryByTeamID(ctx, "t1")
		require.NoError(t, err)
		assert.Len(t, byTeam, 2)

		byRepo, err := p.QueryByRepositoryID(ctx, "r1")
		require.NoError(t, err)
		assert.Len(t, byRepo, 2)

		byOrg, err := p.QueryByOrganizationID(ctx, "2")
		require.NoError(t, err)
		assert.Len(t, byOrg, 2)

		none, err := p.QueryUndoCandidates(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, none)
	}, auditlog.Declaration())
}
