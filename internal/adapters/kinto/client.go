package kinto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/pkg/httpclient"
)

// DefaultBatchSize matches the server's default batch_max_requests.
const DefaultBatchSize = 25

// Client talks to a Kinto server (record store) and to its search plugin endpoint.
// It implements ports.RecordStore and ports.SearchService.
type Client struct {
	baseURL   string
	http      *httpclient.Client
	batchSize int
}

// Options configures a Client.
type Options struct {
	User     string
	Password string
	Timeout  time.Duration
}

// New creates a client for the server rooted at baseURL (e.g. http://localhost:8888/v1).
func New(baseURL string, opts Options) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpclient.New("kinto", opts.Timeout).WithBasicAuth(opts.User, opts.Password),
		batchSize: DefaultBatchSize,
	}
}

func (c *Client) collectionPath(bucket, collection string) string {
	return fmt.Sprintf("/buckets/%s/collections/%s", url.PathEscape(bucket), url.PathEscape(collection))
}

// Ping checks that the server root answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Do(ctx, httpclient.Request{Method: fasthttp.MethodGet, URL: c.baseURL + "/"})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return statusError(resp)
	}
	return nil
}

// ListRecords returns every record of a collection, following pagination.
func (c *Client) ListRecords(ctx context.Context, bucket, collection string) ([]domain.Record, error) {
	next := c.baseURL + c.collectionPath(bucket, collection) + "/records"
	var all []domain.Record

	for next != "" {
		resp, err := c.http.Do(ctx, httpclient.Request{Method: fasthttp.MethodGet, URL: next})
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, statusError(resp)
		}

		var page struct {
			Data []domain.Record `json:"data"`
		}
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("decode records: %w: %w", domain.ErrMalformedResponse, err)
		}
		all = append(all, page.Data...)
		next = resp.Header["Next-Page"]
	}
	return all, nil
}

// SearchHits posts a structured query to the collection search endpoint and
// returns hits.hits from the response.
func (c *Client) SearchHits(ctx context.Context, bucket, collection string, query domain.SearchQuery) ([]domain.Hit, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: fasthttp.MethodPost,
		URL:    c.baseURL + c.collectionPath(bucket, collection) + "/search",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}

	var result struct {
		Hits *struct {
			Hits []domain.Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w: %w", domain.ErrMalformedResponse, err)
	}
	if result.Hits == nil {
		return nil, fmt.Errorf("search response has no hits: %w", domain.ErrMalformedResponse)
	}
	return result.Hits.Hits, nil
}

// CreateBucket creates a bucket, returning domain.ErrAlreadyExists when it exists.
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	return c.createIfAbsent(ctx, "/buckets/"+url.PathEscape(bucket), map[string]any{"data": map[string]any{}})
}

// CreateCollection creates a collection with metadata and permissions,
// returning domain.ErrAlreadyExists when it exists.
func (c *Client) CreateCollection(ctx context.Context, bucket, collection string, metadata map[string]any, permissions map[string][]string) error {
	payload := map[string]any{"data": metadata}
	if len(permissions) > 0 {
		payload["permissions"] = permissions
	}
	return c.createIfAbsent(ctx, c.collectionPath(bucket, collection), payload)
}

func (c *Client) createIfAbsent(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: fasthttp.MethodPut,
		URL:    c.baseURL + path,
		Body:   body,
		Header: map[string]string{"If-None-Match": "*"},
	})
	if err != nil {
		return err
	}
	switch {
	case resp.Status == fasthttp.StatusPreconditionFailed:
		return domain.ErrAlreadyExists
	case !resp.OK():
		return statusError(resp)
	}
	return nil
}

type batchRequest struct {
	Defaults batchDefaults    `json:"defaults"`
	Requests []batchOperation `json:"requests"`
}

type batchDefaults struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

type batchOperation struct {
	Body struct {
		Data domain.Record `json:"data"`
	} `json:"body"`
}

type batchResponse struct {
	Responses []struct {
		Status int             `json:"status"`
		Path   string          `json:"path"`
		Body   json.RawMessage `json:"body"`
	} `json:"responses"`
}

// BatchCreateRecords creates records through the batch endpoint.
func (c *Client) BatchCreateRecords(ctx context.Context, bucket, collection string, records []domain.Record) error {
	path := c.collectionPath(bucket, collection) + "/records"

	for start := 0; start < len(records); start += c.batchSize {
		end := min(start+c.batchSize, len(records))

		req := batchRequest{Defaults: batchDefaults{Method: fasthttp.MethodPost, Path: path}}
		for _, r := range records[start:end] {
			var op batchOperation
			op.Body.Data = r
			req.Requests = append(req.Requests, op)
		}
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(ctx, httpclient.Request{Method: fasthttp.MethodPost, URL: c.baseURL + "/batch", Body: body})
		if err != nil {
			return err
		}
		if !resp.OK() {
			return statusError(resp)
		}

		var out batchResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return fmt.Errorf("decode batch response: %w: %w", domain.ErrMalformedResponse, err)
		}
		for i, r := range out.Responses {
			if r.Status >= 400 {
				return fmt.Errorf("batch request %d (%s): %w", start+i, r.Path,
					&domain.StatusError{Service: "kinto", Status: r.Status, Body: string(r.Body)})
			}
		}
	}
	return nil
}

func statusError(resp *httpclient.Response) error {
	body := string(resp.Body)
	if len(body) > 512 {
		body = body[:512]
	}
	return &domain.StatusError{Service: "kinto", Status: resp.Status, Body: body}
}
