package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/mapsearch/internal/adapters/elasticsearch"
	natsadapter "github.com/samirrijal/mapsearch/internal/adapters/nats"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/config"
	"github.com/samirrijal/mapsearch/internal/pkg/logging"
	"github.com/samirrijal/mapsearch/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapsearch-indexer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if !cfg.Elasticsearch.Enabled() {
		log.Fatal("elasticsearch.hosts is not configured")
	}
	indexer, err := elasticsearch.New(cfg.Elasticsearch.Hosts, cfg.Elasticsearch.Refresh, 0)
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	svc := usecases.NewIndexingService(indexer)
	if err := sub.SubscribeRecordChanges(ctx, svc.OnRecordChanged); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	slog.Info("record indexer started", "durable", natsadapter.IndexerDurable)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("indexer stopping", "signal", sig.String())
}
