package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/mapsearch/internal/adapters/http"
	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
)

// ---- Mocks ----

type mockSearch struct {
	searchFn func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error)
}

func (m *mockSearch) SearchHits(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, bucket, collection, q)
	}
	return nil, nil
}

type mockLayer struct {
	markers []domain.Marker
	err     error
}

func (m *mockLayer) SetMarkers(ctx context.Context, markers []domain.Marker) error {
	m.markers = append([]domain.Marker(nil), markers...)
	return nil
}
func (m *mockLayer) Markers(ctx context.Context) ([]domain.Marker, error) { return m.markers, m.err }

type mockIndexer struct {
	searchFn func(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error)
}

func (m *mockIndexer) Search(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, bucket, collection, req)
	}
	return json.RawMessage(`{"hits":{"hits":[]}}`), nil
}
func (m *mockIndexer) CreateIndex(ctx context.Context, bucket, collection string, schema json.RawMessage) error {
	return nil
}
func (m *mockIndexer) DeleteIndex(ctx context.Context, bucket, collection string) error { return nil }
func (m *mockIndexer) IndexRecords(ctx context.Context, bucket, collection string, records []domain.Record) error {
	return nil
}
func (m *mockIndexer) UnindexRecords(ctx context.Context, bucket, collection string, ids []string) error {
	return nil
}
func (m *mockIndexer) IndexName(bucket, collection string) string { return bucket + "-" + collection }

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Search:   &mockSearch{},
		Viewport: usecases.ControllerConfig{Bucket: "restaurants", Collection: "pizzerias"},
		Markers:  &mockLayer{},
		Kinto:    pinger{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func hits(names ...string) []domain.Hit {
	out := make([]domain.Hit, len(names))
	for i, n := range names {
		out[i] = domain.Hit{Source: domain.Record{Name: n}}
	}
	return out
}

// ---- Viewport handler tests ----

func TestViewport_Post(t *testing.T) {
	var got domain.BoxCorners
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				got = q.Query.Bool.Filter.GeoBoundingBox.Location
				return hits("Pizzeria A", ""), nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/viewport", strings.NewReader(`{"north":42,"west":12,"south":41,"east":13}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var view domain.ListingView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	labels := view.Labels()
	if len(labels) != 2 || labels[0] != "Pizzeria A" || labels[1] != "(No name)" {
		t.Errorf("unexpected labels %v", labels)
	}
	if got != (domain.BoxCorners{Top: 42, Left: 12, Bottom: 41, Right: 13}) {
		t.Errorf("unexpected corners %+v", got)
	}
}

func TestViewport_GetEdges(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/viewport?north=42&west=12&south=41&east=13", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, `"entries":[]`) {
		t.Errorf("expected an empty entries array, got %s", body)
	}
}

func TestViewport_GetRadius(t *testing.T) {
	var got domain.BoxCorners
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				got = q.Query.Bool.Filter.GeoBoundingBox.Location
				return nil, nil
			},
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/viewport?lat=41.8&lon=12.5&radius=1000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !(got.Top > 41.8 && got.Bottom < 41.8 && got.Left < 12.5 && got.Right > 12.5) {
		t.Errorf("expected box around the point, got %+v", got)
	}
}

func TestViewport_Validation(t *testing.T) {
	app := setupApp(makeDeps())

	cases := []struct {
		name string
		url  string
	}{
		{"missing edge", "/v1/viewport?north=42&west=12&south=41"},
		{"not a number", "/v1/viewport?north=abc&west=12&south=41&east=13"},
		{"north below south", "/v1/viewport?north=40&west=12&south=41&east=13"},
		{"latitude out of range", "/v1/viewport?north=95&west=12&south=41&east=13"},
		{"longitude out of range", "/v1/viewport?north=42&west=12&south=41&east=181"},
		{"lat without lon", "/v1/viewport?lat=41"},
		{"radius too large", "/v1/viewport?lat=41&lon=12&radius=100000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := app.Test(httptest.NewRequest("GET", tc.url, nil), -1)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var apiErr handler.APIError
			if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
				t.Fatal(err)
			}
			if apiErr.Code != "bad_request" {
				t.Errorf("expected bad_request, got %q", apiErr.Code)
			}
		})
	}
}

func TestViewport_PostRequiresEveryEdge(t *testing.T) {
	called := false
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				called = true
				return nil, nil
			},
		}
	})
	app := setupApp(deps)

	for _, body := range []string{`{}`, `{"north":42,"west":12,"south":41}`, `{"north":42,"west":-190,"south":41,"east":13}`} {
		req := httptest.NewRequest("POST", "/v1/viewport", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if called {
		t.Error("expected no search for an incomplete box")
	}
}

func TestViewport_RadiusAtAntiMeridian(t *testing.T) {
	var got domain.BoxCorners
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				got = q.Query.Bool.Filter.GeoBoundingBox.Location
				return nil, nil
			},
		}
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/viewport?lat=0&lon=179.999&radius=5000", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got.Right != 180 || got.Left < -180 {
		t.Errorf("expected longitudes within ±180, got %+v", got)
	}
}

func TestViewport_CachesOnlySuccess(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/viewport?north=1&west=0&south=0&east=1", nil), -1)
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=30" {
		t.Errorf("expected a cacheable listing, got %q", cc)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/viewport?north=1", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "" {
		t.Errorf("expected no Cache-Control on an error, got %q", cc)
	}
}

func TestViewport_SearchFailure(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				return nil, errors.New("connection refused")
			},
		}
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/viewport?north=1&west=0&south=0&east=1", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "" {
		t.Errorf("expected a failed listing not to be cacheable, got %q", cc)
	}
}

// ---- Markers handler tests ----

func TestMarkers_Paginated(t *testing.T) {
	layer := &mockLayer{}
	for _, id := range []string{"a", "b", "c"} {
		layer.markers = append(layer.markers, domain.Marker{RecordID: id, Color: "purple", FillOpacity: 0.7, Radius: 4})
	}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Markers = layer }))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/markers?offset=1&limit=1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %q", link)
	}

	var result struct {
		Data       []domain.Marker    `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 1 || result.Data[0].RecordID != "b" {
		t.Errorf("unexpected page %+v", result.Data)
	}
}

func TestMarkers_OffsetPastEnd(t *testing.T) {
	layer := &mockLayer{markers: []domain.Marker{{RecordID: "a"}}}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Markers = layer }))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/markers?offset=10", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, `"data":[]`) {
		t.Errorf("expected empty data, got %s", body)
	}
}

// ---- Search proxy tests ----

func TestSearchProxy_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/buckets/b/collections/c/search?q=x", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestSearchProxy_Post(t *testing.T) {
	var got ports.SearchRequest
	ix := &mockIndexer{
		searchFn: func(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error) {
			if bucket != "restaurants" || collection != "pizzerias" {
				t.Errorf("unexpected collection %s/%s", bucket, collection)
			}
			got = req
			return json.RawMessage(`{"hits":{"total":1}}`), nil
		},
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Proxy = usecases.NewSearchService(ix, usecases.SearchLimits{PaginateBy: 10, MaxFetchSize: 10000})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/buckets/restaurants/collections/pizzerias/search",
		strings.NewReader(`{"query":{"match_all":{}},"size":50}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := string(readBody(t, resp.Body)); body != `{"hits":{"total":1}}` {
		t.Errorf("unexpected body %s", body)
	}
	if got.Size != 10 {
		t.Errorf("expected size clamped to 10, got %d", got.Size)
	}
}

func TestSearchProxy_InvalidQuery(t *testing.T) {
	ix := &mockIndexer{
		searchFn: func(ctx context.Context, bucket, collection string, req ports.SearchRequest) (json.RawMessage, error) {
			return nil, &domain.QueryError{Message: "unknown query [foo]", Details: map[string]any{"type": "parsing_exception"}}
		},
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Proxy = usecases.NewSearchService(ix, usecases.SearchLimits{MaxFetchSize: 10000})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/buckets/b/collections/c/search", strings.NewReader(`{"query":{"foo":{}}}`))
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var apiErr handler.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code != "invalid_parameters" || apiErr.Message != "unknown query [foo]" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if apiErr.Details["type"] != "parsing_exception" {
		t.Errorf("expected root cause details, got %v", apiErr.Details)
	}
}

// ---- GraphQL tests ----

func TestGraphQL_Listing(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				return hits("Sorbillo", ""), nil
			},
		}
	})
	app := setupApp(deps)

	body := `{"query":"{ listing(north: 42, west: 12, south: 41, east: 13) { entries { label } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Listing struct {
				Entries []struct {
					Label string `json:"label"`
				} `json:"entries"`
			} `json:"listing"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	entries := result.Data.Listing.Entries
	if len(entries) != 2 || entries[0].Label != "Sorbillo" || entries[1].Label != "(No name)" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestGraphQL_Markers(t *testing.T) {
	layer := &mockLayer{markers: []domain.Marker{{
		RecordID: "1", Position: domain.GeoPoint{Lat: 41.8, Lon: 12.5}, Color: "purple", FillOpacity: 0.7, Radius: 4,
	}}}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Markers = layer }))

	body := `{"query":"{ markers { record_id color radius position { lat lon } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var result struct {
		Data struct {
			Markers []struct {
				RecordID string          `json:"record_id"`
				Color    string          `json:"color"`
				Radius   int             `json:"radius"`
				Position domain.GeoPoint `json:"position"`
			} `json:"markers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data.Markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(result.Data.Markers))
	}
	m := result.Data.Markers[0]
	if m.RecordID != "1" || m.Color != "purple" || m.Radius != 4 || m.Position.Lat != 41.8 {
		t.Errorf("unexpected marker %+v", m)
	}
}

// ---- Health tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=10" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestReady_KintoDown(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Kinto = pinger{err: errors.New("connection refused")}
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReady_OptionalBackends(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Checks["index"] != "not configured" || result.Checks["kinto"] != "ok" {
		t.Errorf("unexpected checks %v", result.Checks)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/viewport?north=1&west=0&south=0&east=1", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/viewport?north=1&west=0&south=0&east=1", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

// dialSession serves app on a local port and opens a WebSocket session.
func dialSession(t *testing.T, app *fiber.App) *websocket.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var frame map[string]json.RawMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func frameType(frame map[string]json.RawMessage) string {
	var typ string
	_ = json.Unmarshal(frame["type"], &typ)
	return typ
}

func TestWebSocket_Session(t *testing.T) {
	boxes := make(chan domain.BoxCorners, 1)
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Markers = &mockLayer{markers: []domain.Marker{
			{RecordID: "1", Position: domain.GeoPoint{Lat: 41.8, Lon: 12.5}, Color: "purple", FillOpacity: 0.7, Radius: 4},
		}}
		d.Search = &mockSearch{
			searchFn: func(ctx context.Context, bucket, collection string, q domain.SearchQuery) ([]domain.Hit, error) {
				boxes <- q.Query.Bool.Filter.GeoBoundingBox.Location
				return hits("Pizzeria A", ""), nil
			},
		}
	})
	conn := dialSession(t, setupApp(deps))

	// Markers are pushed on connect.
	frame := readFrame(t, conn)
	if frameType(frame) != "markers" {
		t.Fatalf("expected markers frame first, got %v", frame)
	}
	var markers []domain.Marker
	if err := json.Unmarshal(frame["markers"], &markers); err != nil {
		t.Fatal(err)
	}
	if len(markers) != 1 || markers[0].RecordID != "1" || markers[0].Position.Lat != 41.8 {
		t.Errorf("unexpected markers %+v", markers)
	}

	// A settled viewport produces a listing.
	if err := conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"action":"viewport","bbox":{"north":42,"west":12,"south":41,"east":13}}`)); err != nil {
		t.Fatal(err)
	}
	frame = readFrame(t, conn)
	if frameType(frame) != "listing" {
		t.Fatalf("expected listing frame, got %v", frame)
	}
	var listing domain.ListingView
	if err := json.Unmarshal(frame["listing"], &listing); err != nil {
		t.Fatal(err)
	}
	if labels := listing.Labels(); len(labels) != 2 || labels[0] != "Pizzeria A" || labels[1] != "(No name)" {
		t.Errorf("unexpected listing %v", labels)
	}
	if got := <-boxes; got != (domain.BoxCorners{Top: 42, Left: 12, Bottom: 41, Right: 13}) {
		t.Errorf("unexpected query box %+v", got)
	}

	// Invalid boxes are answered with an error frame.
	for _, msg := range []string{
		`{"action":"viewport","bbox":{"north":40,"west":12,"south":41,"east":13}}`,
		`{"action":"viewport"}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
		frame = readFrame(t, conn)
		if frameType(frame) != "error" {
			t.Errorf("%s: expected error frame, got %v", msg, frame)
		}
	}
}
