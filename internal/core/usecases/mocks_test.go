package usecases_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
)

// --- Mock SearchService ---

type mockSearch struct {
	searchFn func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error)
}

func (m *mockSearch) SearchHits(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, bucket, collection, q)
	}
	return nil, nil
}

// --- Recording ListingSink ---

type recordingSink struct {
	mu      sync.Mutex
	views   []domain.ListingView
	current domain.ListingView
	fails   []error
}

func (s *recordingSink) Apply(view domain.ListingView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
	s.current = view
}

func (s *recordingSink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails = append(s.fails, err)
	s.current.Error = "unable to load results"
}

func (s *recordingSink) snapshot() (domain.ListingView, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, len(s.views), len(s.fails)
}

// --- Mock RecordStore ---

type mockRecordStore struct {
	listFn        func(ctx context.Context, bucket, collection string) ([]domain.Record, error)
	createBucket  func(ctx context.Context, bucket string) error
	createColl    func(ctx context.Context, bucket, collection string, metadata map[string]any, perms map[string][]string) error
	batchCreateFn func(ctx context.Context, bucket, collection string, records []domain.Record) error
}

func (m *mockRecordStore) ListRecords(ctx context.Context, bucket, collection string) ([]domain.Record, error) {
	if m.listFn != nil {
		return m.listFn(ctx, bucket, collection)
	}
	return nil, nil
}

func (m *mockRecordStore) CreateBucket(ctx context.Context, bucket string) error {
	if m.createBucket != nil {
		return m.createBucket(ctx, bucket)
	}
	return nil
}

func (m *mockRecordStore) CreateCollection(ctx context.Context, bucket, collection string, metadata map[string]any, perms map[string][]string) error {
	if m.createColl != nil {
		return m.createColl(ctx, bucket, collection, metadata, perms)
	}
	return nil
}

func (m *mockRecordStore) BatchCreateRecords(ctx context.Context, bucket, collection string, records []domain.Record) error {
	if m.batchCreateFn != nil {
		return m.batchCreateFn(ctx, bucket, collection, records)
	}
	return nil
}

// --- Mock MarkerLayer ---

type mockLayer struct {
	markers []domain.Marker
	setErr  error
}

func (m *mockLayer) SetMarkers(ctx context.Context, markers []domain.Marker) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.markers = append([]domain.Marker(nil), markers...)
	return nil
}

func (m *mockLayer) Markers(ctx context.Context) ([]domain.Marker, error) {
	return m.markers, nil
}

// --- Mock Indexer ---

type mockIndexer struct {
	searchFn   func(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error)
	createFn   func(ctx context.Context, bucket, collection string, schema json.RawMessage) error
	deleteFn   func(ctx context.Context, bucket, collection string) error
	indexFn    func(ctx context.Context, bucket, collection string, records []domain.Record) error
	unindexFn  func(ctx context.Context, bucket, collection string, ids []string) error
	searchReqs []ports.SearchRequest
}

func (m *mockIndexer) Search(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error) {
	m.searchReqs = append(m.searchReqs, req)
	if m.searchFn != nil {
		return m.searchFn(ctx, bucket, collection, req)
	}
	return json.RawMessage(`{"hits":{"hits":[]}}`), nil
}

func (m *mockIndexer) CreateIndex(ctx context.Context, bucket, collection string, schema json.RawMessage) error {
	if m.createFn != nil {
		return m.createFn(ctx, bucket, collection, schema)
	}
	return nil
}

func (m *mockIndexer) DeleteIndex(ctx context.Context, bucket, collection string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, bucket, collection)
	}
	return nil
}

func (m *mockIndexer) IndexRecords(ctx context.Context, bucket, collection string, records []domain.Record) error {
	if m.indexFn != nil {
		return m.indexFn(ctx, bucket, collection, records)
	}
	return nil
}

func (m *mockIndexer) UnindexRecords(ctx context.Context, bucket, collection string, ids []string) error {
	if m.unindexFn != nil {
		return m.unindexFn(ctx, bucket, collection, ids)
	}
	return nil
}

func (m *mockIndexer) IndexName(bucket, collection string) string {
	return bucket + "-" + collection
}

// --- Mock RecordStorage ---

type mockStorage struct {
	metaFn func(ctx context.Context, bucket, collection string) (map[string]json.RawMessage, error)
	pageFn func(ctx context.Context, bucket, collection string, before *int64, limit int) ([]domain.Record, error)
}

func (m *mockStorage) CollectionMetadata(ctx context.Context, bucket, collection string) (map[string]json.RawMessage, error) {
	if m.metaFn != nil {
		return m.metaFn(ctx, bucket, collection)
	}
	return nil, domain.ErrCollectionNotFound
}

func (m *mockStorage) RecordsPage(ctx context.Context, bucket, collection string, before *int64, limit int) ([]domain.Record, error) {
	if m.pageFn != nil {
		return m.pageFn(ctx, bucket, collection, before, limit)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	changes []*domain.RecordChange
}

func (m *mockPublisher) PublishRecordChange(ctx context.Context, change *domain.RecordChange) error {
	m.changes = append(m.changes, change)
	return nil
}

func hit(name string) domain.Hit {
	return domain.Hit{Source: domain.Record{Name: name}}
}
