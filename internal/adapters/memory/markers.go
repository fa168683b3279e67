package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// MarkerLayer keeps markers in process memory.
type MarkerLayer struct {
	mu      sync.RWMutex
	markers []domain.Marker
}

// NewMarkerLayer creates an empty layer.
func NewMarkerLayer() *MarkerLayer {
	return &MarkerLayer{}
}

func (l *MarkerLayer) SetMarkers(ctx context.Context, markers []domain.Marker) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = append([]domain.Marker(nil), markers...)
	return nil
}

func (l *MarkerLayer) Markers(ctx context.Context) ([]domain.Marker, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Marker{}, l.markers...), nil
}
