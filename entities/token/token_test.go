/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/entities/internal/entitytest"
	"github.com/suparena/metadatastore/entities/token"
	"github.com/suparena/metadatastore/errors"
)

func TestTokenValidity(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tok := &token.Token{}
	assert.True(t, tok.Valid(now))

	tok.Expires = now
	assert.True(t, tok.Expired(now))
	assert.False(t, tok.Valid(now))

	tok.Expires = now.Add(time.Hour)
	assert.True(t, tok.Valid(now))

	tok.Revoked = true
	assert.False(t, tok.Valid(now))
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", token.HashKey(""))
	assert.NotEqual(t, token.HashKey("a"), token.HashKey("b"))
}

func TestIssueAuthenticateRevoke(t *testing.T) {
	entitytest.Each(t, func(t *testing.T, store *metadatastore.Store) {
		ctx := context.Background()
		p, err := token.NewProvider(store)
		require.NoError(t, err)

		issued, err := p.Issue(ctx, "c-1", "deployment", []string{"repos", "links"}, time.Hour)
		require.NoError(t, err)
		require.NotEmpty(t, issued.Secret)
		assert.Equal(t, token.HashKey(issued.Secret), issued.Key)

		got, err := p.Authenticate(ctx, issued.Secret)
		require.NoError(t, err)
		assert.Equal(t, "c-1", got.CorporateID)
		assert.Empty(t, got.Secret)
		assert.True(t, got.HasScope("links"))
		assert.False(t, got.HasScope("admin"))

		_, err = p.Authenticate(ctx, "not-a-secret")
		assert.True(t, errors.IsNotFound(err))

		mine, err := p.QueryByCorporateID(ctx, "c-1")
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		require.NoError(t, p.Revoke(ctx, issued.Key))
		_, err = p.Authenticate(ctx, issued.Secret)
		assert.True(t, errors.IsNotFound(err))

		all, err := p.QueryAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].Revoked)
	}, token.Declaration())
}

func TestIssueRequiresOwner(t *testing.T) {
	store := entitytest.Open(t, entitytest.Backends()[0], token.Declaration())
	p, err := token.NewProvider(store)
	require.NoError(t, err)

	_, err = p.Issue(context.Background(), "", "", nil, 0)
	assert.True(t, errors.IsValidationError(err))
}
