package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/pkg/metrics"
)

// IndexingService mirrors record changes into the search index.
type IndexingService struct {
	indexer ports.Indexer
}

// NewIndexingService creates a new IndexingService.
func NewIndexingService(indexer ports.Indexer) *IndexingService {
	return &IndexingService{indexer: indexer}
}

// OnRecordChanged indexes the new state of changed records, or removes the
// old state for deletions, in a single bulk call.
func (s *IndexingService) OnRecordChanged(ctx context.Context, change *domain.RecordChange) error {
	if change.Action == domain.ActionDelete {
		ids := make([]string, 0, len(change.Records))
		for _, r := range change.Records {
			if r.Old != nil && r.Old.ID != "" {
				ids = append(ids, r.Old.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.indexer.UnindexRecords(ctx, change.Bucket, change.Collection, ids); err != nil {
			metrics.IndexErrors.WithLabelValues("unindex").Inc()
			slog.Error("failed to unindex records", "bucket", change.Bucket, "collection", change.Collection, "error", err)
			return fmt.Errorf("unindex records: %w", err)
		}
		metrics.RecordsIndexed.WithLabelValues(domain.ActionDelete).Add(float64(len(ids)))
		return nil
	}

	records := make([]domain.Record, 0, len(change.Records))
	for _, r := range change.Records {
		if r.New != nil {
			records = append(records, *r.New)
		}
	}
	if len(records) == 0 {
		return nil
	}
	if err := s.indexer.IndexRecords(ctx, change.Bucket, change.Collection, records); err != nil {
		metrics.IndexErrors.WithLabelValues("index").Inc()
		slog.Error("failed to index records", "bucket", change.Bucket, "collection", change.Collection, "error", err)
		return fmt.Errorf("index records: %w", err)
	}
	metrics.RecordsIndexed.WithLabelValues(change.Action).Add(float64(len(records)))
	return nil
}
