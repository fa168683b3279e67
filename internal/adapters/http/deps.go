package http

import (
	"context"

	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
)

// Pinger is a backend the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	// Search and Viewport drive viewport listings. WebSocket sessions each
	// build their own controller from them.
	Search   ports.SearchService
	Viewport usecases.ControllerConfig
	Markers  ports.MarkerLayer
	// Proxy is nil when no search index is configured.
	Proxy *usecases.SearchService

	Kinto Pinger
	Index Pinger // optional
	Cache Pinger // optional

	// OpenAPIPath defaults to DefaultOpenAPIPath.
	OpenAPIPath string
}
