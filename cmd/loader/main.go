package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/mapsearch/internal/adapters/elasticsearch"
	"github.com/samirrijal/mapsearch/internal/adapters/kinto"
	natsadapter "github.com/samirrijal/mapsearch/internal/adapters/nats"
	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/ports"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
	"github.com/samirrijal/mapsearch/internal/pkg/config"
	"github.com/samirrijal/mapsearch/internal/pkg/httpclient"
	"github.com/samirrijal/mapsearch/internal/pkg/logging"
)

// DefaultSource is an Overpass export of the pizzerias of a few cities.
const DefaultSource = "https://gist.githubusercontent.com/leplatrem/887e61efc1a7dfc7a68bcdf170d1ced9/raw/c0507d874ebe84923d51b2db7990af465eb9cf66/export.geoson"

var (
	loadSource     string
	loadBucket     string
	loadCollection string
	loadConfig     string
	loadIndex      bool
	loadPublish    bool
)

var rootCmd = &cobra.Command{
	Use:   "loader",
	Short: "Load a GeoJSON export into the record store",
	Long: `Creates the bucket and collection when missing, with an index schema
mapping location as a geo point, then creates one record per feature.

The source is a URL or a local file path.`,
	SilenceUsage: true,
	RunE:         runLoad,
}

func init() {
	rootCmd.Flags().StringVarP(&loadSource, "source", "s", DefaultSource, "GeoJSON URL or file")
	rootCmd.Flags().StringVarP(&loadBucket, "bucket", "b", "", "bucket (defaults to kinto.bucket)")
	rootCmd.Flags().StringVarP(&loadCollection, "collection", "c", "", "collection (defaults to kinto.collection)")
	rootCmd.Flags().StringVar(&loadConfig, "config", "", "config file")
	rootCmd.Flags().BoolVar(&loadIndex, "index", false, "create the search index directly")
	rootCmd.Flags().BoolVar(&loadPublish, "publish", false, "publish the created records to NATS")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile("mapsearch-loader", loadConfig)
	if err != nil {
		return err
	}
	logging.SetupCLI("mapsearch-loader", cfg.Log.Level, cfg.Log.Format)

	bucket, collection := cfg.Kinto.Bucket, cfg.Kinto.Collection
	if loadBucket != "" {
		bucket = loadBucket
	}
	if loadCollection != "" {
		collection = loadCollection
	}

	ctx := cmd.Context()
	timeout := time.Duration(cfg.Kinto.Timeout) * time.Second

	fc, err := readFeatures(ctx, loadSource, timeout)
	if err != nil {
		return err
	}

	store := kinto.New(cfg.Kinto.URL, kinto.Options{
		User:     cfg.Kinto.User,
		Password: cfg.Kinto.Password,
		Timeout:  timeout,
	})

	var indexer ports.Indexer
	if loadIndex {
		if !cfg.Elasticsearch.Enabled() {
			return fmt.Errorf("--index needs elasticsearch.hosts")
		}
		es, err := elasticsearch.New(cfg.Elasticsearch.Hosts, cfg.Elasticsearch.Refresh, timeout)
		if err != nil {
			return err
		}
		indexer = es
	}

	var publisher ports.EventPublisher
	if loadPublish {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	}

	n, err := usecases.NewLoaderService(store, indexer, publisher).Load(ctx, bucket, collection, fc)
	if err != nil {
		return err
	}
	cmd.Printf("Loaded %d records into %s/%s\n", n, bucket, collection)
	return nil
}

func readFeatures(ctx context.Context, source string, timeout time.Duration) (*domain.FeatureCollection, error) {
	var data []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := httpclient.New("loader", timeout).Do(ctx, httpclient.Request{Method: "GET", URL: source})
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, &domain.StatusError{Service: "source", Status: resp.Status, Body: string(resp.Body)}
		}
		data = resp.Body
	} else {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, err
		}
		data = b
	}

	var fc domain.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return &fc, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
