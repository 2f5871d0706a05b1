/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package token stores API access tokens issued to corporate users and services.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/codec"
	"github.com/suparena/metadatastore/datastore/ddb"
	"github.com/suparena/metadatastore/datastore/memory"
	"github.com/suparena/metadatastore/datastore/relational"
	"github.com/suparena/metadatastore/entities/internal/translate"
	"github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/query"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// EntityType of access tokens.
const EntityType storagemodels.EntityType = "accesstoken"

// Table names. They must stay stable across deployments.
const (
	TableName    = "settings"
	PartitionKey = "token"
	RowKeyPrefix = "token_"
)

// Token is an API access token. Key holds the SHA-256 of the secret handed to the owner.
type Token struct {
	Key         string    `metadata:"key"`
	CorporateID string    `metadata:"corporateId"`
	Description string    `metadata:"description"`
	Source      string    `metadata:"source"`
	Scopes      []string  `metadata:"scopes"`
	Created     time.Time `metadata:"created"`
	Expires     time.Time `metadata:"expires"`
	Revoked     bool      `metadata:"revoked"`
	Secret      string    `metadata:"secret,transient"`
}

// EntityID implements storagemodels.Entity.
func (t *Token) EntityID() string { return t.Key }

// CreatedAt implements storagemodels.Timestamped.
func (t *Token) CreatedAt() time.Time { return t.Created }

// Expired reports whether the token has an expiry at or before now.
func (t *Token) Expired(now time.Time) bool {
	return !t.Expires.IsZero() && !now.Before(t.Expires)
}

// Valid reports whether the token may authenticate requests at now.
func (t *Token) Valid(now time.Time) bool {
	return !t.Revoked && !t.Expired(now)
}

// HasScope reports whether the token grants scope.
func (t *Token) HasScope(scope string) bool {
	return slices.Contains(t.Scopes, scope)
}

// ByCorporateID selects the tokens of one corporate user.
type ByCorporateID struct {
	CorporateID string
}

// Kind implements query.Fixed.
func (ByCorporateID) Kind() query.Kind { return "accesstoken.byCorporateId" }

var nativeColumns = map[string]string{
	"key":         "key",
	"corporateId": "corporateId",
	"description": "description",
	"source":      "source",
	"scopes":      "scopes",
	"created":     "created",
	"expires":     "expires",
	"revoked":     "revoked",
}

// Declaration returns the mappings of access tokens for every backend.
func Declaration() registry.Declaration {
	return registry.Declaration{
		Type:    EntityType,
		IDField: "key",
		New:     func() storagemodels.Entity { return &Token{} },
		Mappings: map[storagemodels.Backend]registry.Mapping{
			storagemodels.BackendTable: {
				Table:        TableName,
				Partition:    PartitionKey,
				RowKeyPrefix: RowKeyPrefix,
				Columns: map[string]string{
					"corporateId": "owner",
					"description": "description",
					"source":      "source",
					"scopes":      "",
					"created":     "created",
					"expires":     "expires",
					"revoked":     "revoked",
				},
				Codecs: map[string]codec.FieldCodec{
					"scopes": codec.Strings("scopesCount", "scope%d"),
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
	case ByCorporateID:
		return ddb.TableQuery{Equals: []ddb.Predicate{{Column: "owner", Value: tq.CorporateID}}}, nil
	}
	return ddb.TableQuery{}, query.Unsupported(EntityType, storagemodels.BackendTable, q)
}

func translateRelational(q query.Fixed) (relational.Query, error) {
	switch tq := q.(type) {
	case query.All:
		return relational.Query{}, nil
	case ByCorporateID:
		return relational.Query{Contains: map[string]any{"corporateId": tq.CorporateID}}, nil
	}
	return relational.Query{}, query.Unsupported(EntityType, storagemodels.BackendRelational, q)
}

func translateMemory(q query.Fixed) (memory.Predicate, error) {
	switch tq := q.(type) {
	case query.All:
		return translate.All(), nil
	case ByCorporateID:
		return translate.Equals(map[string]any{"corporateId": tq.CorporateID}), nil
	}
	return nil, query.Unsupported(EntityType, storagemodels.BackendMemory, q)
}

// Provider reads and writes access tokens.
type Provider struct {
	*metadatastore.Provider[*Token]
}

// NewProvider creates the access token provider over store.
func NewProvider(store *metadatastore.Store) (*Provider, error) {
	p, err := metadatastore.NewProvider[*Token](store, EntityType)
	if err != nil {
		return nil, err
	}
	return &Provider{Provider: p}, nil
}

// HashKey derives the stored key of a token secret.
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Issue creates a token for corporateID. The random secret is returned in Secret once;
// only its hash is stored.
func (p *Provider) Issue(ctx context.Context, corporateID, description string, scopes []string, ttl time.Duration) (*Token, error) {
	if corporateID == "" {
		return nil, errors.NewValidationError("corporateId", "owner is required")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	secret := hex.EncodeToString(buf)
	now := time.Now().UTC()
	t := &Token{
		Key:         HashKey(secret),
		CorporateID: corporateID,
		Description: description,
		Scopes:      scopes,
		Created:     now,
		Secret:      secret,
	}
	if ttl > 0 {
		t.Expires = now.Add(ttl)
	}
	if err := p.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Authenticate returns the token of secret when it is valid now. Unknown, revoked and
// expired tokens are all reported as NotFound.
func (p *Provider) Authenticate(ctx context.Context, secret string) (*Token, error) {
	key := HashKey(secret)
	t, err := p.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !t.Valid(time.Now().UTC()) {
		return nil, errors.NewNotFoundError(EntityType.String(), key)
	}
	return t, nil
}

// Revoke marks a token revoked.
func (p *Provider) Revoke(ctx context.Context, key string) error {
	t, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	t.Revoked = true
	return p.Update(ctx, t)
}

// QueryAll returns every token.
func (p *Provider) QueryAll(ctx context.Context) ([]*Token, error) {
	return p.Query(ctx, query.All{})
}

// QueryByCorporateID returns the tokens of a corporate user.
func (p *Provider) QueryByCorporateID(ctx context.Context, corporateID string) ([]*Token, error) {
	return p.Query(ctx, ByCorporateID{CorporateID: corporateID})
}
