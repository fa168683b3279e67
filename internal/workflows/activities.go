package workflows

import (
	"context"
	"encoding/json"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
)

// PageOutput mirrors usecases.PageResult across the workflow boundary.
type PageOutput struct {
	Indexed int
	Next    *int64
	Done    bool
}

// ReindexActivities holds the activity implementations for the reindex workflow.
type ReindexActivities struct {
	Reindex *usecases.ReindexService
}

// FetchIndexSchema returns the collection's index:schema attribute.
func (a *ReindexActivities) FetchIndexSchema(ctx context.Context, bucket, collection string) (json.RawMessage, error) {
	schema, err := a.Reindex.IndexSchema(ctx, bucket, collection)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		return nil, temporal.NewNonRetryableApplicationError(
			"no collection '"+collection+"' in bucket '"+bucket+"'", ErrTypeCollectionNotFound, err)
	case errors.Is(err, domain.ErrNoIndexSchema):
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNoIndexSchema, err)
	}
	return schema, err
}

// RecreateIndex deletes the collection index and creates it with schema.
func (a *ReindexActivities) RecreateIndex(ctx context.Context, bucket, collection string, schema json.RawMessage) error {
	return a.Reindex.RecreateIndex(ctx, bucket, collection, schema)
}

// IndexPage indexes the page of records older than before.
func (a *ReindexActivities) IndexPage(ctx context.Context, bucket, collection string, before *int64) (PageOutput, error) {
	page, err := a.Reindex.IndexPage(ctx, bucket, collection, before)
	if err != nil {
		return PageOutput{}, err
	}
	return PageOutput{Indexed: page.Indexed, Next: page.Next, Done: page.Done}, nil
}
