package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapsearch",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapsearch",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Viewport search
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "viewport",
		Name:      "search_requests_total",
		Help:      "Viewport searches issued, by outcome",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapsearch",
		Subsystem: "viewport",
		Name:      "search_duration_seconds",
		Help:      "Latency of viewport searches",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	ListingsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "viewport",
		Name:      "listings_applied_total",
		Help:      "Listings applied to a sink",
	})

	StaleResponsesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "viewport",
		Name:      "stale_responses_dropped_total",
		Help:      "Responses dropped because a newer request was already applied",
	})

	// Markers and indexing
	MarkersSeeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "markers",
		Name:      "seeded_total",
		Help:      "Markers added to the map layer at startup",
	})

	RecordsIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "index",
		Name:      "records_total",
		Help:      "Records written to or removed from the search index",
	}, []string{"action"})

	IndexErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapsearch",
		Subsystem: "index",
		Name:      "errors_total",
		Help:      "Failed index operations",
	}, []string{"operation"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapsearch",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket sessions",
	})
)

// ObserveSearch records the outcome and latency of one viewport search.
func ObserveSearch(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchRequests.WithLabelValues(outcome).Inc()
	SearchDuration.Observe(time.Since(start).Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
