package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/mapsearch/internal/adapters/elasticsearch"
	"github.com/samirrijal/mapsearch/internal/adapters/postgres"
	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/config"
	"github.com/samirrijal/mapsearch/internal/pkg/logging"
	"github.com/samirrijal/mapsearch/internal/workflows"
)

// Exit codes.
const (
	exitIndexerNotConfigured = 62
	exitCollectionNotFound   = 63
	exitNoIndexSchema        = 64
)

var errIndexerNotConfigured = errors.New("no search index configured (elasticsearch.hosts)")

var (
	reindexBucket     string
	reindexCollection string
	reindexConfig     string
	reindexWorkflow   bool
)

var rootCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild a collection's search index",
	Long: `Drops and recreates the search index of a collection using the mapping
stored in its index:schema attribute, then indexes every stored record,
newest first.

With --workflow the reindex runs as a Temporal workflow on the reindex worker.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReindex,
}

func init() {
	rootCmd.Flags().StringVarP(&reindexBucket, "bucket", "b", "", "bucket (required)")
	rootCmd.Flags().StringVarP(&reindexCollection, "collection", "c", "", "collection (required)")
	rootCmd.Flags().StringVar(&reindexConfig, "config", "", "config file")
	rootCmd.Flags().BoolVar(&reindexWorkflow, "workflow", false, "run through the Temporal reindex worker")
	_ = rootCmd.MarkFlagRequired("bucket")
	_ = rootCmd.MarkFlagRequired("collection")
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile("mapsearch-reindex", reindexConfig)
	if err != nil {
		return err
	}
	logging.SetupCLI("mapsearch-reindex", cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	if reindexWorkflow {
		return runWorkflow(ctx, cmd, cfg)
	}

	if !cfg.Elasticsearch.Enabled() {
		return errIndexerNotConfigured
	}
	indexer, err := elasticsearch.New(cfg.Elasticsearch.Hosts, cfg.Elasticsearch.Refresh, 0)
	if err != nil {
		return err
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := usecases.NewReindexService(postgres.NewRecordRepo(db), indexer).Run(ctx, reindexBucket, reindexCollection)
	if err != nil {
		return err
	}
	cmd.Printf("%d records reindexed into %s\n", n, indexer.IndexName(reindexBucket, reindexCollection))
	return nil
}

func runWorkflow(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(reindexBucket, reindexCollection),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ReindexWorkflow, workflows.ReindexInput{
		Bucket:     reindexBucket,
		Collection: reindexCollection,
	})
	if err != nil {
		return err
	}

	var result workflows.ReindexResult
	if err := run.Get(ctx, &result); err != nil {
		return err
	}
	cmd.Printf("%d records reindexed in %d pages (workflow %s)\n", result.Indexed, result.Pages, run.GetID())
	return nil
}

// exitCode maps a reindex failure to the process exit status.
func exitCode(err error) int {
	var appErr *temporal.ApplicationError
	switch {
	case errors.Is(err, errIndexerNotConfigured):
		return exitIndexerNotConfigured
	case errors.Is(err, domain.ErrCollectionNotFound):
		return exitCollectionNotFound
	case errors.Is(err, domain.ErrNoIndexSchema):
		return exitNoIndexSchema
	case errors.As(err, &appErr):
		switch appErr.Type() {
		case workflows.ErrTypeCollectionNotFound:
			return exitCollectionNotFound
		case workflows.ErrTypeNoIndexSchema:
			return exitNoIndexSchema
		}
	}
	return 1
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
