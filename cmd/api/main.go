package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapsearch/internal/adapters/elasticsearch"
	"github.com/samirrijal/mapsearch/internal/adapters/http"
	"github.com/samirrijal/mapsearch/internal/adapters/kinto"
	"github.com/samirrijal/mapsearch/internal/adapters/memory"
	"github.com/samirrijal/mapsearch/internal/adapters/valkey"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/config"
	"github.com/samirrijal/mapsearch/internal/pkg/logging"
	"github.com/samirrijal/mapsearch/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapsearch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	timeout := time.Duration(cfg.Kinto.Timeout) * time.Second
	opts := kinto.Options{User: cfg.Kinto.User, Password: cfg.Kinto.Password, Timeout: timeout}
	records := kinto.New(cfg.Kinto.URL, opts)
	search := records
	if base := cfg.SearchBaseURL(); base != cfg.Kinto.URL {
		search = kinto.New(base, opts)
	}

	deps := &http.Dependencies{
		Search: search,
		Viewport: usecases.ControllerConfig{
			Bucket:     cfg.Kinto.Bucket,
			Collection: cfg.Kinto.Collection,
			Sequenced:  cfg.Search.Sequenced,
		},
		Kinto: records,
	}

	// Markers
	var layer ports.MarkerLayer = memory.NewMarkerLayer()
	if cfg.Markers.Store == "valkey" {
		shared, err := valkey.New(cfg.Valkey.Addr, cfg.Kinto.Bucket, cfg.Kinto.Collection)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer shared.Close()
		layer = shared
		deps.Cache = shared
	}
	deps.Markers = layer

	// Search proxy
	if cfg.Elasticsearch.Enabled() {
		indexer, err := elasticsearch.New(cfg.Elasticsearch.Hosts, cfg.Elasticsearch.Refresh, timeout)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		deps.Proxy = usecases.NewSearchService(indexer, usecases.SearchLimits{
			PaginateBy:   cfg.Search.PaginateBy,
			MaxFetchSize: cfg.Search.MaxFetchSize,
		})
		deps.Index = indexer
	}

	// Seed markers once, concurrently with serving.
	seeder := usecases.NewMarkerSeeder(records, layer, cfg.Kinto.Bucket, cfg.Kinto.Collection)
	go func() {
		if err := seeder.Seed(ctx); err != nil {
			slog.Error("marker seeding failed", "error", err)
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "mapsearch API",
	})

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr,
			"bucket", cfg.Kinto.Bucket, "collection", cfg.Kinto.Collection)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
