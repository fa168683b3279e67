package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
)

// SearchLimits bounds the number of hits a proxied search may return.
type SearchLimits struct {
	PaginateBy   int
	MaxFetchSize int
}

// Configured returns the effective result size limit.
func (l SearchLimits) Configured() int {
	paginateBy := l.PaginateBy
	if paginateBy <= 0 {
		paginateBy = l.MaxFetchSize
	}
	return min(paginateBy, l.MaxFetchSize)
}

// SearchService proxies raw searches to the collection index.
type SearchService struct {
	indexer ports.Indexer
	limits  SearchLimits
}

// NewSearchService creates a new SearchService.
func NewSearchService(indexer ports.Indexer, limits SearchLimits) *SearchService {
	return &SearchService{indexer: indexer, limits: limits}
}

// Search runs a JSON body search, or a query-string search when body is
// empty. A requested size above the configured limit is replaced by it.
// Malformed queries return *domain.QueryError; any other index failure is
// logged and yields an empty object.
func (s *SearchService) Search(ctx context.Context, bucket, collection string, body []byte, q string) (json.RawMessage, error) {
	req := ports.SearchRequest{Body: body, Q: q}
	configured := s.limits.Configured()
	if specified, ok := requestedSize(body); !ok || specified > configured {
		req.Size = configured
	}

	results, err := s.indexer.Search(ctx, bucket, collection, req)
	if errors.Is(err, domain.ErrIndexNotFound) {
		// The collection may predate the index.
		if cerr := s.indexer.CreateIndex(ctx, bucket, collection, nil); cerr != nil && !errors.Is(cerr, domain.ErrAlreadyExists) {
			slog.Error("create missing index failed", "bucket", bucket, "collection", collection, "error", cerr)
		}
		results, err = s.indexer.Search(ctx, bucket, collection, req)
	}

	var qerr *domain.QueryError
	switch {
	case err == nil:
		return results, nil
	case errors.As(err, &qerr):
		return nil, qerr
	default:
		slog.Error("index query failed", "bucket", bucket, "collection", collection, "error", err)
		return json.RawMessage(`{}`), nil
	}
}

// requestedSize extracts "size" from a JSON body. Unparseable bodies report
// no size.
func requestedSize(body []byte) (int, bool) {
	if len(body) == 0 {
		return 0, false
	}
	var parsed struct {
		Size *int `json:"size"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Size == nil {
		return 0, false
	}
	return *parsed.Size, true
}
