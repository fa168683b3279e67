package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/mapsearch/internal/adapters/memory"
	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/metrics"
)

// wsMessage is sent by the client whenever its map stops moving.
type wsMessage struct {
	Action string       `json:"action"` // "viewport"
	BBox   *bboxRequest `json:"bbox"`
}

type wsMarkers struct {
	Type    string          `json:"type"` // "markers"
	Session string          `json:"session"`
	Markers []domain.Marker `json:"markers"`
}

type wsListing struct {
	Type    string             `json:"type"` // "listing"
	Listing domain.ListingView `json:"listing"`
}

type wsError struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

// WebSocketHandler returns a handler running one map page session per
// connection. The session first receives every seeded marker, then a full
// listing each time a viewport search completes.
// Clients send JSON: {"action":"viewport","bbox":{"north":42,"west":12,"south":41,"east":13}}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		session := uuid.NewString()
		logger := slog.Default().With("session", session, "remote", c.RemoteAddr().String())
		logger.Info("ws session opened")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		listing := memory.NewListing(func(view domain.ListingView) {
			if err := writeJSON(wsListing{Type: "listing", Listing: view}); err != nil {
				logger.Debug("ws listing write failed", "error", err)
			}
		})
		ctrl := usecases.NewViewportSearchController(deps.Viewport, deps.Search, listing)

		markers, err := deps.Markers.Markers(ctx)
		if err != nil {
			logger.Error("ws markers load failed", "error", err)
			markers = nil
		}
		if markers == nil {
			markers = []domain.Marker{}
		}
		if err := writeJSON(wsMarkers{Type: "markers", Session: session, Markers: markers}); err != nil {
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsError{Type: "error", Error: "invalid JSON"})
				continue
			}
			if m.Action != "viewport" {
				_ = writeJSON(wsError{Type: "error", Error: "unknown action: " + m.Action})
				continue
			}
			bbox, err := m.BBox.toBBox()
			if err == nil {
				err = validateBBox(bbox)
			}
			if err != nil {
				_ = writeJSON(wsError{Type: "error", Error: err.Error()})
				continue
			}
			ctrl.OnViewportSettled(ctx, bbox)
		}

		// Cleanup
		close(done)
		cancel()
		ctrl.Wait()
		logger.Info("ws session closed")
	}
}
