package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"go.opentelemetry.io/otel"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
)

// Indexer maintains one index per collection, named "{bucket}-{collection}".
type Indexer struct {
	es      *elasticsearch.Client
	refresh bool
	timeout time.Duration
}

// New creates an indexer spreading requests over hosts. With refresh set,
// bulk writes wait until they are visible to searches. A zero timeout leaves
// deadlines to the caller's context.
func New(hosts []string, refresh bool, timeout time.Duration) (*Indexer, error) {
	clean := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.TrimRight(strings.TrimSpace(h), "/"); h != "" {
			clean = append(clean, h)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("elasticsearch: no hosts configured")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:       clean,
		Instrumentation: elasticsearch.NewOpenTelemetryInstrumentation(otel.GetTracerProvider(), false),
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Indexer{es: es, refresh: refresh, timeout: timeout}, nil
}

// IndexName returns the index backing a collection.
func (ix *Indexer) IndexName(bucket, collection string) string {
	return strings.ToLower(bucket + "-" + collection)
}

func (ix *Indexer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ix.timeout > 0 {
		return context.WithTimeout(ctx, ix.timeout)
	}
	return ctx, func() {}
}

// Ping checks cluster reachability.
func (ix *Indexer) Ping(ctx context.Context) error {
	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	res, err := ix.es.Ping(ix.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

// Search runs req against the collection index and returns the raw response.
func (ix *Indexer) Search(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error) {
	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	search := ix.es.Search
	opts := []func(*esapi.SearchRequest){
		search.WithContext(ctx),
		search.WithIndex(ix.IndexName(bucket, collection)),
	}
	if req.Size > 0 {
		opts = append(opts, search.WithSize(req.Size))
	}
	if len(req.Body) > 0 {
		opts = append(opts, search.WithBody(bytes.NewReader(req.Body)))
	} else if req.Q != "" {
		opts = append(opts, search.WithQuery(req.Q))
	}

	res, err := search(opts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError(res)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	return json.RawMessage(body), nil
}

// CreateIndex creates the collection index with schema as its mappings. A nil
// schema creates an index with dynamic mappings.
func (ix *Indexer) CreateIndex(ctx context.Context, bucket, collection string, schema json.RawMessage) error {
	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	body := []byte(`{}`)
	if len(schema) > 0 && string(schema) != "null" {
		var err error
		body, err = json.Marshal(map[string]json.RawMessage{"mappings": schema})
		if err != nil {
			return fmt.Errorf("encode mappings: %w", err)
		}
	}

	res, err := ix.es.Indices.Create(ix.IndexName(bucket, collection),
		ix.es.Indices.Create.WithContext(ctx),
		ix.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

// DeleteIndex removes the collection index.
func (ix *Indexer) DeleteIndex(ctx context.Context, bucket, collection string) error {
	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	res, err := ix.es.Indices.Delete([]string{ix.IndexName(bucket, collection)},
		ix.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

// IndexRecords writes the full body of each record, keyed by record id.
func (ix *Indexer) IndexRecords(ctx context.Context, bucket, collection string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	index := ix.IndexName(bucket, collection)

	items := make([]esutil.BulkIndexerItem, 0, len(records))
	for _, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
		items = append(items, esutil.BulkIndexerItem{
			Action:     "index",
			Index:      index,
			DocumentID: r.ID,
			Body:       bytes.NewReader(doc),
		})
	}
	return ix.bulk(ctx, items)
}

// UnindexRecords deletes documents by id.
func (ix *Indexer) UnindexRecords(ctx context.Context, bucket, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	index := ix.IndexName(bucket, collection)

	items := make([]esutil.BulkIndexerItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, esutil.BulkIndexerItem{Action: "delete", Index: index, DocumentID: id})
	}
	return ix.bulk(ctx, items)
}

// bulk sends items through a single-worker bulk indexer and collects every
// item failure.
func (ix *Indexer) bulk(ctx context.Context, items []esutil.BulkIndexerItem) error {
	ctx, cancel := ix.withTimeout(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		failures []error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, err)
	}

	cfg := esutil.BulkIndexerConfig{
		Client:     ix.es,
		NumWorkers: 1,
		OnError: func(ctx context.Context, err error) {
			fail(fmt.Errorf("bulk: %w", err))
		},
	}
	if ix.refresh {
		cfg.Refresh = "wait_for"
	}
	bi, err := esutil.NewBulkIndexer(cfg)
	if err != nil {
		return fmt.Errorf("bulk indexer: %w", err)
	}

	onFailure := func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
		switch {
		case err != nil:
			fail(fmt.Errorf("bulk %s %s: %w", item.Action, item.DocumentID, err))
		// Deleting an unknown document is not a failure.
		case item.Action == "delete" && res.Status == http.StatusNotFound:
		default:
			fail(fmt.Errorf("bulk %s %s: %s: %s", item.Action, item.DocumentID, res.Error.Type, res.Error.Reason))
		}
	}

	for _, item := range items {
		item.OnFailure = onFailure
		if err := bi.Add(ctx, item); err != nil {
			return fmt.Errorf("bulk add %s: %w", item.DocumentID, err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("bulk flush: %w", err)
	}
	return errors.Join(failures...)
}

type errorBody struct {
	Error struct {
		Type      string           `json:"type"`
		Reason    string           `json:"reason"`
		RootCause []map[string]any `json:"root_cause"`
	} `json:"error"`
}

// decodeError maps an error response onto the domain errors.
func decodeError(res *esapi.Response) error {
	data, _ := io.ReadAll(res.Body)
	var body errorBody
	_ = json.Unmarshal(data, &body)

	switch {
	case body.Error.Type == "index_not_found_exception":
		return domain.ErrIndexNotFound
	case body.Error.Type == "resource_already_exists_exception":
		return domain.ErrAlreadyExists
	case res.StatusCode == http.StatusBadRequest:
		qerr := &domain.QueryError{Message: body.Error.Reason}
		if qerr.Message == "" {
			qerr.Message = string(data)
		}
		if len(body.Error.RootCause) > 0 {
			qerr.Details = body.Error.RootCause[0]
		}
		return qerr
	}

	msg := string(data)
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return &domain.StatusError{Service: "elasticsearch", Status: res.StatusCode, Body: msg}
}
