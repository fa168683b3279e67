package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Kinto         KintoConfig         `mapstructure:"kinto"`
	Search        SearchConfig        `mapstructure:"search"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Markers       MarkersConfig       `mapstructure:"markers"`
	Database      DatabaseConfig      `mapstructure:"database"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Valkey        ValkeyConfig        `mapstructure:"valkey"`
	Temporal      TemporalConfig      `mapstructure:"temporal"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Log           LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// KintoConfig locates the record store and the collection the map shows.
type KintoConfig struct {
	URL        string `mapstructure:"url"`
	Bucket     string `mapstructure:"bucket"`
	Collection string `mapstructure:"collection"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Timeout    int    `mapstructure:"timeout"` // seconds, 0 = none
}

// SearchConfig controls the viewport search flow and the search proxy.
type SearchConfig struct {
	// URL of the service exposing /buckets/{b}/collections/{c}/search.
	// Empty means the Kinto URL.
	URL          string `mapstructure:"url"`
	Sequenced    bool   `mapstructure:"sequenced"`
	PaginateBy   int    `mapstructure:"paginate_by"`
	MaxFetchSize int    `mapstructure:"max_fetch_size"`
}

// SearchBaseURL returns the search service base URL, falling back to Kinto.
func (c *Config) SearchBaseURL() string {
	if c.Search.URL != "" {
		return c.Search.URL
	}
	return c.Kinto.URL
}

type ElasticsearchConfig struct {
	Hosts   []string `mapstructure:"hosts"`
	Refresh bool     `mapstructure:"refresh"`
}

// Enabled reports whether an index is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Hosts) > 0 && e.Hosts[0] != ""
}

type MarkersConfig struct {
	Store string `mapstructure:"store"` // "memory" or "valkey"
}

// DatabaseConfig points at the record store's Postgres storage backend.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	return LoadFile(service, "")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// ./config.yaml and ./configs/config.yaml.
func LoadFile(service, path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("kinto.url", "http://localhost:8888/v1")
	v.SetDefault("kinto.bucket", "restaurants")
	v.SetDefault("kinto.collection", "pizzerias")
	v.SetDefault("kinto.user", "")
	v.SetDefault("kinto.password", "")
	v.SetDefault("kinto.timeout", 0)
	v.SetDefault("search.url", "")
	v.SetDefault("search.sequenced", false)
	v.SetDefault("search.paginate_by", 0)
	v.SetDefault("search.max_fetch_size", 10000)
	v.SetDefault("elasticsearch.hosts", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.refresh", false)
	v.SetDefault("markers.store", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "kinto")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "reindex-queue")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: MAPSEARCH_KINTO_URL → kinto.url
	v.SetEnvPrefix("MAPSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Kinto.URL == "" {
		errs = append(errs, "kinto.url is required")
	}
	if c.Kinto.Bucket == "" {
		errs = append(errs, "kinto.bucket is required")
	}
	if c.Kinto.Collection == "" {
		errs = append(errs, "kinto.collection is required")
	}
	if c.Kinto.Timeout < 0 {
		errs = append(errs, "kinto.timeout must not be negative")
	}
	if c.Search.MaxFetchSize <= 0 {
		errs = append(errs, "search.max_fetch_size must be positive")
	}
	switch c.Markers.Store {
	case "memory":
	case "valkey":
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required when markers.store is valkey")
		}
	default:
		errs = append(errs, fmt.Sprintf("markers.store must be memory or valkey, got %q", c.Markers.Store))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
