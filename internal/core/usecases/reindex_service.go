package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/pkg/metrics"
)

// IndexSchemaField is the collection metadata attribute holding the index mapping.
const IndexSchemaField = "index:schema"

// ReindexPageSize is the storage page size used when reindexing.
const ReindexPageSize = 5000

// PageResult is the outcome of indexing one storage page.
type PageResult struct {
	Indexed int    `json:"indexed"`
	Next    *int64 `json:"next,omitempty"`
	Done    bool   `json:"done"`
}

// ReindexService rebuilds a collection's search index from storage.
type ReindexService struct {
	storage  ports.RecordStorage
	indexer  ports.Indexer
	pageSize int
}

// NewReindexService creates a new ReindexService.
func NewReindexService(storage ports.RecordStorage, indexer ports.Indexer) *ReindexService {
	return &ReindexService{storage: storage, indexer: indexer, pageSize: ReindexPageSize}
}

// WithPageSize overrides the storage page size.
func (s *ReindexService) WithPageSize(n int) *ReindexService {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// IndexSchema returns the collection's index mapping.
func (s *ReindexService) IndexSchema(ctx context.Context, bucket, collection string) (json.RawMessage, error) {
	meta, err := s.storage.CollectionMetadata(ctx, bucket, collection)
	if err != nil {
		return nil, err
	}
	schema, ok := meta[IndexSchemaField]
	if !ok || len(schema) == 0 || string(schema) == "null" {
		return nil, domain.ErrNoIndexSchema
	}
	return schema, nil
}

// RecreateIndex drops the collection index if present and creates it with schema.
func (s *ReindexService) RecreateIndex(ctx context.Context, bucket, collection string, schema json.RawMessage) error {
	name := s.indexer.IndexName(bucket, collection)
	if err := s.indexer.DeleteIndex(ctx, bucket, collection); err != nil && !errors.Is(err, domain.ErrIndexNotFound) {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	slog.Info("old index deleted", "index", name)

	if err := s.indexer.CreateIndex(ctx, bucket, collection, schema); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	slog.Info("new index created", "index", name)
	return nil
}

// IndexPage indexes the page of records older than before (or the newest
// page when before is nil). A failed bulk write is logged and the page is
// skipped.
func (s *ReindexService) IndexPage(ctx context.Context, bucket, collection string, before *int64) (PageResult, error) {
	records, err := s.storage.RecordsPage(ctx, bucket, collection, before, s.pageSize)
	if err != nil {
		return PageResult{}, fmt.Errorf("read records page: %w", err)
	}

	res := PageResult{Done: len(records) < s.pageSize}
	if len(records) > 0 {
		oldest := records[len(records)-1].LastModified
		res.Next = &oldest

		if err := s.indexer.IndexRecords(ctx, bucket, collection, records); err != nil {
			metrics.IndexErrors.WithLabelValues("reindex").Inc()
			slog.Error("failed to index records", "bucket", bucket, "collection", collection, "error", err)
		} else {
			res.Indexed = len(records)
			metrics.RecordsIndexed.WithLabelValues("reindex").Add(float64(len(records)))
		}
	}
	return res, nil
}

// Run recreates the index and reindexes every stored record. It returns the
// number of records indexed.
func (s *ReindexService) Run(ctx context.Context, bucket, collection string) (int, error) {
	schema, err := s.IndexSchema(ctx, bucket, collection)
	if err != nil {
		return 0, err
	}
	if err := s.RecreateIndex(ctx, bucket, collection, schema); err != nil {
		return 0, err
	}

	total := 0
	var before *int64
	for {
		page, err := s.IndexPage(ctx, bucket, collection, before)
		if err != nil {
			return total, err
		}
		total += page.Indexed
		if page.Done {
			break
		}
		before = page.Next
	}

	slog.Info("records reindexed", "bucket", bucket, "collection", collection, "total", total)
	return total, nil
}
