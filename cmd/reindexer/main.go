package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/mapsearch/internal/adapters/elasticsearch"
	"github.com/samirrijal/mapsearch/internal/adapters/postgres"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/config"
	"github.com/samirrijal/mapsearch/internal/pkg/logging"
	"github.com/samirrijal/mapsearch/internal/pkg/telemetry"
	"github.com/samirrijal/mapsearch/internal/workflows"
)

func main() {
	cfg, err := config.Load("mapsearch-reindexer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

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

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ReindexWorkflow)
	w.RegisterActivity(&workflows.ReindexActivities{
		Reindex: usecases.NewReindexService(postgres.NewRecordRepo(db), indexer),
	})

	slog.Info("reindex worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
