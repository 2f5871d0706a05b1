/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package ddbtest provides an in-process DynamoDB fake for adapter tests. It understands
// the condition, key condition and filter expressions the ddb adapter renders.
package ddbtest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	hashKey  string
	rangeKey string
	items    map[string]map[string]types.AttributeValue
}

// Client is a fake DynamoDB client backed by maps.
type Client struct {
	mu       sync.Mutex
	tables   map[string]*table
	failures map[string][]error
	calls    map[string]int
}

// New creates a fake with the given tables already present, keyed by PK and SK.
func New(tables ...string) *Client {
	c := &Client{
		tables:   make(map[string]*table),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
	for _, name := range tables {
		c.tables[name] = newTable("PK", "SK")
	}
	return c
}

func newTable(hashKey, rangeKey string) *table {
	return &table{hashKey: hashKey, rangeKey: rangeKey, items: make(map[string]map[string]types.AttributeValue)}
}

// FailNext queues err as the result of the next call of operation, e.g. "Query".
func (c *Client) FailNext(operation string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[operation] = append(c.failures[operation], err)
}

// Calls returns how many times operation was invoked.
func (c *Client) Calls(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[operation]
}

// Items returns a copy of every item in tableName, ordered by key.
func (c *Client) Items(tableName string) []map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[tableName]
	if !ok {
		return nil
	}
	var out []map[string]types.AttributeValue
	for _, k := range t.sortedKeys() {
		out = append(out, copyItem(t.items[k]))
	}
	return out
}

func (c *Client) begin(operation string) error {
	c.calls[operation]++
	if queued := c.failures[operation]; len(queued) > 0 {
		c.failures[operation] = queued[1:]
		return queued[0]
	}
	return nil
}

func (c *Client) table(name *string) (*table, error) {
	t, ok := c.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return t, nil
}

// GetItem implements ddb.Client.
func (c *Client) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("GetItem"); err != nil {
		return nil, err
	}
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[k]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: copyItem(item)}, nil
}

// PutItem implements ddb.Client.
func (c *Client) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("PutItem"); err != nil {
		return nil, err
	}
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, t.items[k]); err != nil {
		return nil, err
	}
	t.items[k] = copyItem(in.Item)
	return &sdk.PutItemOutput{}, nil
}

// DeleteItem implements ddb.Client.
func (c *Client) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("DeleteItem"); err != nil {
		return nil, err
	}
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, t.items[k]); err != nil {
		return nil, err
	}
	delete(t.items, k)
	return &sdk.DeleteItemOutput{}, nil
}

// Query implements ddb.Client. Limit bounds the items evaluated per page, as in DynamoDB.
func (c *Client) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Query"); err != nil {
		return nil, err
	}
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	keyCond, err := parseConditions(aws.ToString(in.KeyConditionExpression))
	if err != nil {
		return nil, err
	}
	filter, err := parseConditions(aws.ToString(in.FilterExpression))
	if err != nil {
		return nil, err
	}
	items, last, err := t.page(in.ExclusiveStartKey, in.Limit, func(item map[string]types.AttributeValue) (bool, bool) {
		ok := keyCond.match(item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		return ok, ok && filter.match(item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	})
	if err != nil {
		return nil, err
	}
	return &sdk.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

// Scan implements ddb.Client.
func (c *Client) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Scan"); err != nil {
		return nil, err
	}
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	filter, err := parseConditions(aws.ToString(in.FilterExpression))
	if err != nil {
		return nil, err
	}
	items, last, err := t.page(in.ExclusiveStartKey, in.Limit, func(item map[string]types.AttributeValue) (bool, bool) {
		return true, filter.match(item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	})
	if err != nil {
		return nil, err
	}
	return &sdk.ScanOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

// DescribeTable implements ddb.Client. Existing tables are always ACTIVE.
func (c *Client) DescribeTable(ctx context.Context, in *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("DescribeTable"); err != nil {
		return nil, err
	}
	if _, err := c.table(in.TableName); err != nil {
		return nil, err
	}
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

// CreateTable implements ddb.Client.
func (c *Client) CreateTable(ctx context.Context, in *sdk.CreateTableInput, _ ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("CreateTable"); err != nil {
		return nil, err
	}
	name := aws.ToString(in.TableName)
	if _, exists := c.tables[name]; exists {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists: " + name)}
	}
	var hashKey, rangeKey string
	for _, k := range in.KeySchema {
		switch k.KeyType {
		case types.KeyTypeHash:
			hashKey = aws.ToString(k.AttributeName)
		case types.KeyTypeRange:
			rangeKey = aws.ToString(k.AttributeName)
		}
	}
	c.tables[name] = newTable(hashKey, rangeKey)
	return &sdk.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (t *table) keyOf(item map[string]types.AttributeValue) (string, error) {
	hash, ok := item[t.hashKey].(*types.AttributeValueMemberS)
	if !ok || hash.Value == "" {
		return "", fmt.Errorf("ddbtest: missing string key attribute %s", t.hashKey)
	}
	if t.rangeKey == "" {
		return hash.Value, nil
	}
	rng, ok := item[t.rangeKey].(*types.AttributeValueMemberS)
	if !ok || rng.Value == "" {
		return "", fmt.Errorf("ddbtest: missing string key attribute %s", t.rangeKey)
	}
	return hash.Value + "\x00" + rng.Value, nil
}

func (t *table) sortedKeys() []string {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// page walks items in key order after start. evaluate reports whether an item counts
// against the limit and whether it is returned.
func (t *table) page(start map[string]types.AttributeValue, limit *int32,
	evaluate func(map[string]types.AttributeValue) (evaluated, matched bool),
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	startKey := ""
	if len(start) > 0 {
		k, err := t.keyOf(start)
		if err != nil {
			return nil, nil, err
		}
		startKey = k
	}

	var out []map[string]types.AttributeValue
	evaluatedCount := int32(0)
	keys := t.sortedKeys()
	for i, k := range keys {
		if startKey != "" && k <= startKey {
			continue
		}
		evaluated, matched := evaluate(t.items[k])
		if !evaluated {
			continue
		}
		evaluatedCount++
		if matched {
			out = append(out, copyItem(t.items[k]))
		}
		if limit != nil && evaluatedCount >= *limit && i < len(keys)-1 {
			last := map[string]types.AttributeValue{t.hashKey: t.items[k][t.hashKey]}
			if t.rangeKey != "" {
				last[t.rangeKey] = t.items[k][t.rangeKey]
			}
			return out, last, nil
		}
	}
	return out, nil, nil
}

func checkCondition(expr *string, names map[string]string, existing map[string]types.AttributeValue) error {
	if expr == nil {
		return nil
	}
	e := strings.TrimSpace(*expr)
	var want bool
	switch {
	case strings.HasPrefix(e, "attribute_not_exists("):
		want = false
		e = strings.TrimPrefix(e, "attribute_not_exists(")
	case strings.HasPrefix(e, "attribute_exists("):
		want = true
		e = strings.TrimPrefix(e, "attribute_exists(")
	default:
		return fmt.Errorf("ddbtest: unsupported condition %q", *expr)
	}
	attr := resolveName(strings.TrimSuffix(e, ")"), names)
	_, exists := existing[attr]
	if exists != want {
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	return nil
}

// condition is one ANDed clause: alternatives are ORed.
type condition struct {
	alternatives []comparison
}

type comparison struct {
	name       string
	value      string
	beginsWith bool
}

type conditions []condition

func parseConditions(expr string) (conditions, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	var out conditions
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		if strings.HasPrefix(clause, "(") && strings.HasSuffix(clause, ")") {
			clause = clause[1 : len(clause)-1]
		}
		var cond condition
		for _, alt := range strings.Split(clause, " OR ") {
			cmp, err := parseComparison(strings.TrimSpace(alt))
			if err != nil {
				return nil, err
			}
			cond.alternatives = append(cond.alternatives, cmp)
		}
		out = append(out, cond)
	}
	return out, nil
}

func parseComparison(s string) (comparison, error) {
	if strings.HasPrefix(s, "begins_with(") && strings.HasSuffix(s, ")") {
		args := strings.Split(s[len("begins_with("):len(s)-1], ",")
		if len(args) != 2 {
			return comparison{}, fmt.Errorf("ddbtest: malformed %q", s)
		}
		return comparison{name: strings.TrimSpace(args[0]), value: strings.TrimSpace(args[1]), beginsWith: true}, nil
	}
	name, value, ok := strings.Cut(s, " = ")
	if !ok {
		return comparison{}, fmt.Errorf("ddbtest: unsupported comparison %q", s)
	}
	return comparison{name: strings.TrimSpace(name), value: strings.TrimSpace(value)}, nil
}

func (cs conditions) match(item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, cond := range cs {
		matched := false
		for _, cmp := range cond.alternatives {
			if cmp.match(item, names, values) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (c comparison) match(item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	actual, ok := item[resolveName(c.name, names)]
	if !ok {
		return false
	}
	expected, ok := values[c.value]
	if !ok {
		return false
	}
	if c.beginsWith {
		a, aok := actual.(*types.AttributeValueMemberS)
		e, eok := expected.(*types.AttributeValueMemberS)
		return aok && eok && strings.HasPrefix(a.Value, e.Value)
	}
	return equal(actual, expected)
}

func equal(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return reflect.DeepEqual(a, b)
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if resolved, ok := names[name]; ok {
			return resolved
		}
	}
	return name
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
