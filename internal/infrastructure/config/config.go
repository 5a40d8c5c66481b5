package config

import (
	"strings"
	"time"

	"laundering-ring-detector/internal/domain/analysis"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Analysis analysis.Config `mapstructure:"analysis"`
	Ingest   IngestConfig    `mapstructure:"ingest"`
	NATS     NATSConfig      `mapstructure:"nats"`
	Neo4J    Neo4JConfig     `mapstructure:"neo4j"`
	Health   HealthConfig    `mapstructure:"health"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string `mapstructure:"env"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	HTTPPort       int    `mapstructure:"http_port"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
	// MaxBatchSize caps the transactions accepted in one analysis request
	MaxBatchSize int `mapstructure:"max_batch_size"`
}

// IngestConfig represents CSV ingestion configuration
type IngestConfig struct {
	Delimiter       string `mapstructure:"delimiter"`
	TimestampLayout string `mapstructure:"timestamp_layout"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	QueueGroup         string        `mapstructure:"queue_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingRequests int           `mapstructure:"max_pending_requests"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	Enabled            bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
	FetchLimit                   int           `mapstructure:"fetch_limit"`
	Enabled                      bool          `mapstructure:"enabled"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads configuration through the given viper instance
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/laundering-ring-detector")

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("")

	// Map environment variables to nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Analysis.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 4)
	v.SetDefault("app.max_batch_size", 1_000_000)

	// Analysis defaults
	def := analysis.DefaultConfig()
	v.SetDefault("analysis.min_cycle_length", def.MinCycleLength)
	v.SetDefault("analysis.max_cycle_length", def.MaxCycleLength)
	v.SetDefault("analysis.fan_threshold", def.FanThreshold)
	v.SetDefault("analysis.structuring_window", def.StructuringWindow.String())
	v.SetDefault("analysis.report_all_windows", def.ReportAllWindows)
	v.SetDefault("analysis.min_chain_length", def.MinChainLength)
	v.SetDefault("analysis.max_chain_length", def.MaxChainLength)
	v.SetDefault("analysis.whitelist_degree", def.WhitelistDegree)
	v.SetDefault("analysis.max_search_visits", def.MaxSearchVisits)
	v.SetDefault("analysis.detector_timeout", def.DetectorTimeout.String())

	// Ingest defaults
	v.SetDefault("ingest.delimiter", ",")
	v.SetDefault("ingest.timestamp_layout", "")

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "aml")
	v.SetDefault("nats.queue_group", "ring-detector")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_requests", 64)
	v.SetDefault("nats.request_timeout", "2m")
	v.SetDefault("nats.enabled", true)

	// Neo4J defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", "10s")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")
	v.SetDefault("neo4j.fetch_limit", 500_000)
	v.SetDefault("neo4j.enabled", false)

	// Health defaults
	v.SetDefault("health.interval", "30s")
	v.SetDefault("health.timeout", "5s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "ring_detector")

	// Bind env for connection URLs
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("neo4j.uri", "NEO4J_URI")
}
