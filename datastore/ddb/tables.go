/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	storeerrors "github.com/suparena/metadatastore/errors"
	"github.com/suparena/metadatastore/storagemodels"
)

// TableWaitTimeout bounds how long Initialize waits for a created table to become active.
var TableWaitTimeout = 2 * time.Minute

// Tables returns the distinct table names used by entity types mapped to this backend.
func (a *Adapter) Tables() ([]string, error) {
	seen := map[string]bool{}
	var tables []string
	for _, t := range a.registry.EntityTypes() {
		if !a.registry.Supports(t, storagemodels.BackendTable) {
			continue
		}
		m, err := a.mapping(t)
		if err != nil {
			return nil, err
		}
		if !seen[m.table] {
			seen[m.table] = true
			tables = append(tables, m.table)
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// Initialize implements datastore.Adapter. It verifies every table exists and, when
// configured, creates missing ones with PK/SK string keys and on-demand billing.
func (a *Adapter) Initialize(ctx context.Context) error {
	tables, err := a.Tables()
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := a.ensureTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) ensureTable(ctx context.Context, table string) error {
	_, err := a.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}

	var rnf *types.ResourceNotFoundException
	if !errors.As(err, &rnf) {
		return storeerrors.NewBackendError(string(storagemodels.BackendTable), "initialize", table, err)
	}
	if !a.createTables {
		return storeerrors.NewConfigurationError("", "table", "table %q does not exist", table)
	}

	_, err = a.client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(AttrPartition), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrRowKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(AttrPartition), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(AttrRowKey), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return storeerrors.NewBackendError(string(storagemodels.BackendTable), "initialize", table, err)
		}
	}

	waiter := sdk.NewTableExistsWaiter(a.client)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(table)}, TableWaitTimeout); err != nil {
		return storeerrors.NewBackendError(string(storagemodels.BackendTable), "initialize", table, err)
	}
	a.logger.Info().Str("table", table).Msg("created table")
	return nil
}
