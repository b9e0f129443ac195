// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Search   SearchConfig   `mapstructure:"search"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Diagram  DiagramConfig  `mapstructure:"diagram"`
	DB       DBConfig       `mapstructure:"db"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	RequestTimeout  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SearchConfig configures the Tavily search client.
type SearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ExtractConfig governs fetch, render and retry behavior during extraction.
type ExtractConfig struct {
	Window         int `mapstructure:"window"`
	MaxRetries     int `mapstructure:"max_retries"`
	RetryDelaySec  int `mapstructure:"retry_delay_seconds"`
	NavTimeoutSec  int `mapstructure:"nav_timeout_seconds"`
	PerDomainRPS   int `mapstructure:"per_domain_rps"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LLMConfig selects the Gemini model and generation temperatures.
type LLMConfig struct {
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	GenerateTemperature float64 `mapstructure:"generate_temperature"`
	DiagramTemperature  float64 `mapstructure:"diagram_temperature"`
}

// DiagramConfig tunes the diagram workflow.
type DiagramConfig struct {
	MaxRetries int `mapstructure:"max_retries"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory stores.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// ArchiveConfig selects where raw page snapshots are written.
type ArchiveConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
}

// PubSubConfig holds metadata for run-report notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// PipelineConfig sets per-run defaults overridable by the request.
type PipelineConfig struct {
	MaxSources  int `mapstructure:"max_sources"`
	RecencyDays int `mapstructure:"recency_days"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TECHNEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 300)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("search.endpoint", "https://api.tavily.com/search")
	v.SetDefault("search.timeout_seconds", 30)
	v.SetDefault("extract.window", 2)
	v.SetDefault("extract.max_retries", 2)
	v.SetDefault("extract.retry_delay_seconds", 2)
	v.SetDefault("extract.nav_timeout_seconds", 30)
	v.SetDefault("extract.per_domain_rps", 1)
	v.SetDefault("extract.timeout_seconds", 15)
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.generate_temperature", 0.3)
	v.SetDefault("llm.diagram_temperature", 0.2)
	v.SetDefault("diagram.max_retries", 3)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("archive.backend", "memory")
	v.SetDefault("archive.local_dir", "snapshots")
	v.SetDefault("logging.development", true)
	v.SetDefault("pipeline.max_sources", 5)
	v.SetDefault("pipeline.recency_days", 7)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Extract.Window <= 0 {
		return fmt.Errorf("extract.window must be > 0")
	}
	if c.Diagram.MaxRetries <= 0 {
		return fmt.Errorf("diagram.max_retries must be > 0")
	}
	switch c.Archive.Backend {
	case "memory", "local":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend must be one of memory, local, gcs")
	}
	if c.Pipeline.MaxSources <= 0 {
		return fmt.Errorf("pipeline.max_sources must be > 0")
	}
	return nil
}

// SearchTimeout converts the search timeout into a duration.
func (c Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// RequestTimeout converts the server request timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// ShutdownTimeout converts the server shutdown timeout into a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}
