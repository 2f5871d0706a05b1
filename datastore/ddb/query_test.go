/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/metadatastore/errors"
)

func TestRender(t *testing.T) {
	fixed := &mapping{partition: "repository", typeValue: "repositorymetadata"}
	derived := &mapping{partition: "approval#{organizationName}", derived: true, typeValue: "teamjoinrequest", rowKeyPrefix: "req_"}

	t.Run("fixed partition uses key condition", func(t *testing.T) {
		e, err := fixed.render(TableQuery{Equals: []Predicate{{Column: "orgid", Value: "42"}}})
		require.NoError(t, err)
		assert.Equal(t, "#pk = :pk", aws.ToString(e.keyCondition))
		assert.Equal(t, "#et = :et AND #f0 = :f0", aws.ToString(e.filter))
		assert.Equal(t, "orgid", e.names["#f0"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "42"}, e.values[":f0"])
		assert.Equal(t, &types.AttributeValueMemberS{Value: "repository"}, e.values[":pk"])
	})

	t.Run("derived partition scans", func(t *testing.T) {
		e, err := derived.render(TableQuery{AnyOf: &AnyOf{Column: "teamid", Values: []any{"1", "2"}}})
		require.NoError(t, err)
		assert.Nil(t, e.keyCondition)
		assert.Equal(t, "#et = :et AND (#in = :in0 OR #in = :in1)", aws.ToString(e.filter))
	})

	t.Run("explicit partition with row key prefix", func(t *testing.T) {
		e, err := derived.render(TableQuery{Partition: "approval#contoso"})
		require.NoError(t, err)
		assert.Equal(t, "#pk = :pk AND begins_with(#sk, :skp)", aws.ToString(e.keyCondition))
		assert.Equal(t, &types.AttributeValueMemberS{Value: "req_"}, e.values[":skp"])
	})

	t.Run("values are typed", func(t *testing.T) {
		e, err := fixed.render(TableQuery{Equals: []Predicate{{Column: "active", Value: true}, {Column: "rank", Value: 3}}})
		require.NoError(t, err)
		assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, e.values[":f0"])
		assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, e.values[":f1"])
	})
}

func TestExpandMacros(t *testing.T) {
	columns := map[string]string{"organizationName": "orgname", "approvalId": "approvalid"}

	got, err := expandMacros("approval#{organizationName}", map[string]any{"orgname": "contoso"}, columns)
	require.NoError(t, err)
	assert.Equal(t, "approval#contoso", got)

	got, err = expandMacros("{orgname}#{n}", map[string]any{"orgname": "contoso", "n": 4}, columns)
	require.NoError(t, err)
	assert.Equal(t, "contoso#4", got)

	_, err = expandMacros("approval#{organizationName}", map[string]any{}, columns)
	assert.True(t, errors.IsValidationError(err))

	_, err = expandMacros("approval#{organizationName}", map[string]any{"orgname": ""}, columns)
	assert.True(t, errors.IsValidationError(err))
}
