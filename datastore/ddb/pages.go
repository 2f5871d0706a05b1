/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// pager abstracts over the SDK query and scan paginators.
type pager interface {
	HasMorePages() bool
	nextPage(ctx context.Context) ([]map[string]types.AttributeValue, error)
}

type queryPager struct{ *sdk.QueryPaginator }

func (p queryPager) nextPage(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	out, err := p.NextPage(ctx)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

type scanPager struct{ *sdk.ScanPaginator }

func (p scanPager) nextPage(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	out, err := p.NextPage(ctx)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

// collect drains every page of p. The first failed page aborts the read; throttling is
// retried by the SDK client's retryer before the error reaches here.
func (a *Adapter) collect(ctx context.Context, p pager) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	pageNumber := 0

	for p.HasMorePages() {
		page, err := p.nextPage(ctx)
		if err != nil {
			return nil, err
		}
		pageNumber++
		items = append(items, page...)

		a.logger.Trace().Int("page", pageNumber).Int("items", len(page)).Msg("read page")
	}
	return items, nil
}
