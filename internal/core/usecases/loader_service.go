package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
)

// DefaultIndexSchema maps name as text and location as a geo point.
var DefaultIndexSchema = json.RawMessage(`{"properties":{"name":{"type":"text"},"location":{"type":"geo_point"}}}`)

// LoaderService imports a GeoJSON export into the record store.
type LoaderService struct {
	store     ports.RecordStore
	indexer   ports.Indexer        // optional
	publisher ports.EventPublisher // optional
}

// NewLoaderService creates a loader. indexer and publisher may be nil.
func NewLoaderService(store ports.RecordStore, indexer ports.Indexer, publisher ports.EventPublisher) *LoaderService {
	return &LoaderService{store: store, indexer: indexer, publisher: publisher}
}

// Load creates the bucket and collection if needed, then creates one record
// per feature. It returns the number of records written.
func (s *LoaderService) Load(ctx context.Context, bucket, collection string, fc *domain.FeatureCollection) (int, error) {
	if err := s.store.CreateBucket(ctx, bucket); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return 0, fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	metadata := map[string]any{IndexSchemaField: DefaultIndexSchema}
	// Anonymous map clients read the collection.
	permissions := map[string][]string{"read": {"system.Everyone"}}
	if err := s.store.CreateCollection(ctx, bucket, collection, metadata, permissions); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return 0, fmt.Errorf("create collection %s/%s: %w", bucket, collection, err)
	}

	if s.indexer != nil {
		if err := s.indexer.CreateIndex(ctx, bucket, collection, DefaultIndexSchema); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return 0, fmt.Errorf("create index: %w", err)
		}
	}

	records := RecordsFromFeatures(fc.Features)
	if err := s.store.BatchCreateRecords(ctx, bucket, collection, records); err != nil {
		return 0, fmt.Errorf("create records: %w", err)
	}

	if s.publisher != nil {
		change := &domain.RecordChange{
			Action:     domain.ActionCreate,
			Bucket:     bucket,
			Collection: collection,
			Records:    make([]domain.ImpactedRecord, len(records)),
		}
		for i := range records {
			change.Records[i] = domain.ImpactedRecord{New: &records[i]}
		}
		if err := s.publisher.PublishRecordChange(ctx, change); err != nil {
			slog.Warn("publish record change failed", "error", err)
		}
	}

	slog.Info("records loaded", "bucket", bucket, "collection", collection, "records", len(records))
	return len(records), nil
}

// RecordsFromFeatures converts features into records. Overpass node ids
// ("node/123") keep only their numeric part; coordinates stay [lon, lat].
func RecordsFromFeatures(features []domain.Feature) []domain.Record {
	records := make([]domain.Record, 0, len(features))
	for _, f := range features {
		r := domain.Record{ID: strings.Replace(f.ID, "node/", "", 1)}
		if name, ok := f.Properties["name"].(string); ok {
			r.Name = name
		}
		loc := f.Geometry.Coordinates
		r.Location = &loc
		records = append(records, r)
	}
	return records
}
