package ports

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// SearchService runs a structured query against a collection's search endpoint.
type SearchService interface {
	SearchHits(ctx context.Context, bucket, collection string, query domain.SearchQuery) ([]domain.Hit, error)
}

// SearchRequest is a raw search passed through to the index.
type SearchRequest struct {
	Body []byte // JSON query body, may be empty
	Q    string // query-string search, used when Body is empty
	Size int    // 0 leaves the index default
}

// Indexer maintains and queries the per-collection search index.
type Indexer interface {
	Search(ctx context.Context, bucket, collection string, req SearchRequest) (json.RawMessage, error)
	CreateIndex(ctx context.Context, bucket, collection string, schema json.RawMessage) error
	DeleteIndex(ctx context.Context, bucket, collection string) error
	IndexRecords(ctx context.Context, bucket, collection string, records []domain.Record) error
	UnindexRecords(ctx context.Context, bucket, collection string, ids []string) error
	IndexName(bucket, collection string) string
}

// ListingSink is the side-effecting end of the render step.
type ListingSink interface {
	// Apply replaces the whole listing with view.
	Apply(view domain.ListingView)
	// Fail keeps the current entries and surfaces a load error.
	Fail(err error)
}

// EventPublisher publishes record changes to a message broker.
type EventPublisher interface {
	PublishRecordChange(ctx context.Context, change *domain.RecordChange) error
}

// EventSubscriber delivers record changes from a message broker.
type EventSubscriber interface {
	SubscribeRecordChanges(ctx context.Context, handler func(ctx context.Context, change *domain.RecordChange) error) error
}
