/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package orgsetting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/entities/internal/entitytest"
	"github.com/suparena/metadatastore/entities/orgsetting"
	"github.com/suparena/metadatastore/errors"
)

func TestFeatureFlags(t *testing.T) {
	s := &orgsetting.Setting{OrganizationID: "1"}
	s.EnableFeature("sudo")
	s.EnableFeature("sudo")
	s.EnableFeature("newRepoLockdown")
	assert.Equal(t, []string{"sudo", "newRepoLockdown"}, s.Features)
	assert.True(t, s.HasFeature("sudo"))

	s.DisableFeature("sudo")
	s.DisableFeature("newRepoLockdown")
	assert.Nil(t, s.Features)
	assert.False(t, s.HasFeature("sudo"))
}

func TestSettingsLifecycle(t *testing.T) {
	entitytest.Each(t, func(t *testing.T, store *metadatastore.Store) {
		ctx := context.Background()
		p, err := orgsetting.NewProvider(store)
		require.NoError(t, err)

		s := &orgsetting.Setting{OrganizationID: "1", OrganizationName: "contoso", Active: true}
		s.EnableFeature("sudo")
		require.NoError(t, p.Create(ctx, s))
		require.NoError(t, p.Create(ctx, &orgsetting.Setting{OrganizationID: "2", OrganizationName: "fabrikam"}))

		got, err := p.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, []string{"sudo"}, got.Features)

		got.EnableFeature("newRepoLockdown")
		require.NoError(t, p.Update(ctx, got))
		assert.False(t, got.Updated.IsZero())

		byName, err := p.GetByOrganizationName(ctx, "contoso")
		require.NoError(t, err)
		assert.Equal(t, []string{"sudo", "newRepoLockdown"}, byName.Features)

		_, err = p.GetByOrganizationName(ctx, "litware")
		assert.True(t, errors.IsNotFound(err))

		active, err := p.QueryActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "1", active[0].OrganizationID)

		all, err := p.QueryAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	}, orgsetting.Declaration())
}
