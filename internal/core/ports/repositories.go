package ports

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// RecordStore lists and writes records through the record-store API.
type RecordStore interface {
	ListRecords(ctx context.Context, bucket, collection string) ([]domain.Record, error)
	CreateBucket(ctx context.Context, bucket string) error
	CreateCollection(ctx context.Context, bucket, collection string, metadata map[string]any, permissions map[string][]string) error
	BatchCreateRecords(ctx context.Context, bucket, collection string, records []domain.Record) error
}

// RecordStorage reads the record store's backing database directly.
type RecordStorage interface {
	// CollectionMetadata returns the collection object's data, or
	// domain.ErrCollectionNotFound.
	CollectionMetadata(ctx context.Context, bucket, collection string) (map[string]json.RawMessage, error)
	// RecordsPage returns up to limit records sorted by last_modified
	// descending, strictly older than before when before is non-nil.
	RecordsPage(ctx context.Context, bucket, collection string, before *int64, limit int) ([]domain.Record, error)
}

// MarkerLayer owns the markers drawn on the map for the page's lifetime.
// SetMarkers replaces the whole set; readers never see a partial set.
type MarkerLayer interface {
	SetMarkers(ctx context.Context, markers []domain.Marker) error
	Markers(ctx context.Context) ([]domain.Marker, error)
}
