package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// MarkerKey returns the list key holding a collection's markers.
func MarkerKey(bucket, collection string) string {
	return fmt.Sprintf("mapsearch:markers:%s:%s", bucket, collection)
}

// MarkerLayer implements ports.MarkerLayer on a Valkey list so that every
// API replica serves the same markers.
type MarkerLayer struct {
	client valkey.Client
	key    string
}

// New creates a marker layer for one collection.
func New(addr, bucket, collection string) (*MarkerLayer, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &MarkerLayer{client: client, key: MarkerKey(bucket, collection)}, nil
}

// SetMarkers replaces the stored set in one MULTI/EXEC transaction, so
// replicas seeding at the same time leave exactly one copy and readers never
// see the list empty while it is rebuilt.
func (m *MarkerLayer) SetMarkers(ctx context.Context, markers []domain.Marker) error {
	values, err := encodeMarkers(markers)
	if err != nil {
		return err
	}

	cmds := valkey.Commands{
		m.client.B().Multi().Build(),
		m.client.B().Del().Key(m.key).Build(),
	}
	if len(values) > 0 {
		cmds = append(cmds, m.client.B().Rpush().Key(m.key).Element(values...).Build())
	}
	cmds = append(cmds, m.client.B().Exec().Build())

	resps := m.client.DoMulti(ctx, cmds...)
	for _, r := range resps {
		if err := r.Error(); err != nil {
			return fmt.Errorf("replace markers: %w", err)
		}
	}
	results, err := resps[len(resps)-1].ToArray()
	if err != nil {
		return fmt.Errorf("replace markers: %w", err)
	}
	for _, r := range results {
		if err := r.Error(); err != nil {
			return fmt.Errorf("replace markers: %w", err)
		}
	}
	return nil
}

func encodeMarkers(markers []domain.Marker) ([]string, error) {
	values := make([]string, 0, len(markers))
	for _, mk := range markers {
		b, err := json.Marshal(mk)
		if err != nil {
			return nil, err
		}
		values = append(values, string(b))
	}
	return values, nil
}

// Markers returns every marker in insertion order.
func (m *MarkerLayer) Markers(ctx context.Context) ([]domain.Marker, error) {
	values, err := m.client.Do(ctx, m.client.B().Lrange().Key(m.key).Start(0).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		return nil, err
	}
	markers := make([]domain.Marker, 0, len(values))
	for _, v := range values {
		var mk domain.Marker
		if err := json.Unmarshal([]byte(v), &mk); err != nil {
			return nil, fmt.Errorf("decode marker: %w", err)
		}
		markers = append(markers, mk)
	}
	return markers, nil
}

// Ping checks the connection.
func (m *MarkerLayer) Ping(ctx context.Context) error {
	return m.client.Do(ctx, m.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (m *MarkerLayer) Close() {
	m.client.Close()
}
