package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/pkg/metrics"
)

// ControllerConfig names the collection searched on every viewport change.
type ControllerConfig struct {
	Bucket     string
	Collection string
	// Sequenced drops responses that complete after a newer request's
	// response was already applied. When false the last response to arrive
	// wins, even if it belongs to an older viewport.
	Sequenced bool
}

// ViewportSearchController keeps a listing consistent with the visible map region.
type ViewportSearchController struct {
	cfg    ControllerConfig
	search ports.SearchService
	sink   ports.ListingSink
	logger *slog.Logger

	issued  atomic.Uint64
	mu      sync.Mutex // guards applied
	applied uint64
	wg      sync.WaitGroup
}

// NewViewportSearchController creates a controller writing to sink.
func NewViewportSearchController(cfg ControllerConfig, search ports.SearchService, sink ports.ListingSink) *ViewportSearchController {
	return &ViewportSearchController{
		cfg:    cfg,
		search: search,
		sink:   sink,
		logger: slog.Default().With("component", "viewport", "bucket", cfg.Bucket, "collection", cfg.Collection),
	}
}

// OnViewportSettled issues one search for bbox and applies the rendered result
// to the sink when it completes. It returns immediately.
func (c *ViewportSearchController) OnViewportSettled(ctx context.Context, bbox domain.BoundingBox) {
	id := c.issued.Add(1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		view, err := c.Refresh(ctx, bbox)
		if err != nil {
			c.logger.Error("viewport search failed", "request", id, "error", err)
		}
		c.complete(id, view, err)
	}()
}

// Refresh runs one search synchronously and returns the rendered listing.
func (c *ViewportSearchController) Refresh(ctx context.Context, bbox domain.BoundingBox) (domain.ListingView, error) {
	start := time.Now()
	hits, err := c.search.SearchHits(ctx, c.cfg.Bucket, c.cfg.Collection, BuildQuery(bbox))
	metrics.ObserveSearch(start, err)
	if err != nil {
		return domain.ListingView{}, fmt.Errorf("search %s/%s: %w", c.cfg.Bucket, c.cfg.Collection, err)
	}
	return Render(hits), nil
}

// Wait blocks until every issued search has completed.
func (c *ViewportSearchController) Wait() {
	c.wg.Wait()
}

func (c *ViewportSearchController) complete(id uint64, view domain.ListingView, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Sequenced && id < c.applied {
		metrics.StaleResponsesDropped.Inc()
		c.logger.Debug("dropping stale response", "request", id, "applied", c.applied)
		return
	}
	if err != nil {
		c.sink.Fail(err)
		return
	}
	if id > c.applied {
		c.applied = id
	}
	c.sink.Apply(view)
	metrics.ListingsApplied.Inc()
}
