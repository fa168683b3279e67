package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/pkg/metrics"
)

// Marker style used for seeded records.
const (
	MarkerColor       = "purple"
	MarkerFillOpacity = 0.7
	MarkerRadius      = 4
)

// MarkerSeeder draws one marker per stored record, once per process.
type MarkerSeeder struct {
	records    ports.RecordStore
	layer      ports.MarkerLayer
	bucket     string
	collection string

	once sync.Once
	err  error
}

// NewMarkerSeeder creates a seeder for the given collection.
func NewMarkerSeeder(records ports.RecordStore, layer ports.MarkerLayer, bucket, collection string) *MarkerSeeder {
	return &MarkerSeeder{records: records, layer: layer, bucket: bucket, collection: collection}
}

// Seed lists all records and replaces the layer's markers with theirs. Only the first
// call does any work; later calls return the first call's result.
func (s *MarkerSeeder) Seed(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.seed(ctx)
	})
	return s.err
}

func (s *MarkerSeeder) seed(ctx context.Context) error {
	records, err := s.records.ListRecords(ctx, s.bucket, s.collection)
	if err != nil {
		return fmt.Errorf("list records %s/%s: %w", s.bucket, s.collection, err)
	}

	markers := make([]domain.Marker, 0, len(records))
	skipped := 0
	for _, r := range records {
		m, ok := MarkerFor(r)
		if !ok {
			skipped++
			continue
		}
		markers = append(markers, m)
	}

	if err := s.layer.SetMarkers(ctx, markers); err != nil {
		return fmt.Errorf("add markers: %w", err)
	}
	metrics.MarkersSeeded.Add(float64(len(markers)))

	slog.Info("markers seeded",
		"bucket", s.bucket, "collection", s.collection,
		"markers", len(markers), "skipped", skipped)
	return nil
}

// MarkerFor converts a record into a map marker. Stored locations are
// [lon, lat]; the marker position is latitude-first. Records without a
// location produce no marker.
func MarkerFor(r domain.Record) (domain.Marker, bool) {
	if r.Location == nil {
		return domain.Marker{}, false
	}
	return domain.Marker{
		RecordID:    r.ID,
		Position:    r.Location.GeoPoint(),
		Color:       MarkerColor,
		FillOpacity: MarkerFillOpacity,
		Radius:      MarkerRadius,
	}, true
}
