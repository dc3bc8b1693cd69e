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
	Server  ServerConfig  `mapstructure:"server"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Elastic ElasticConfig `mapstructure:"elastic"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout_seconds"`
}

// CrawlConfig governs the ingestion crawl.
type CrawlConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	MaxPages          int     `mapstructure:"max_pages"`
	UserAgent         string  `mapstructure:"user_agent"`
	NavTimeoutSec     int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS         float64 `mapstructure:"domain_qps"`
	RecipePathMarker  string  `mapstructure:"recipe_path_marker"`
	HeadlessThreshold int     `mapstructure:"headless_threshold_bytes"`
}

// OpenAIConfig holds credentials and model identifiers for the
// embedding/completion service. Model names are configuration, not contract.
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	EmbedModel string `mapstructure:"embed_model"`
	ChatModel  string `mapstructure:"chat_model"`
}

// ElasticConfig points at the vector backend.
type ElasticConfig struct {
	Addresses []string `mapstructure:"addresses"`
	APIKey    string   `mapstructure:"api_key"`
	Index     string   `mapstructure:"index"`
	Dims      int      `mapstructure:"dims"`
}

// Neo4jConfig points at the graph backend.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECIPECHAT")
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
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("crawl.max_pages", 1000)
	v.SetDefault("crawl.user_agent", "recipechat-bot/0.1")
	v.SetDefault("crawl.nav_timeout_seconds", 25)
	v.SetDefault("crawl.domain_qps", 1.0)
	v.SetDefault("crawl.recipe_path_marker", "/recipe/")
	v.SetDefault("crawl.headless_threshold_bytes", 2048)
	v.SetDefault("openai.embed_model", "text-embedding-3-small")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("elastic.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elastic.index", "recipechat-pages")
	v.SetDefault("elastic.dims", 1536)
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values. Absence of a credential or endpoint is
// a startup-time fatal condition for the component that needs it.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawl.BaseURL == "" {
		return fmt.Errorf("crawl.base_url must be set")
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key must be set")
	}
	if len(c.Elastic.Addresses) == 0 {
		return fmt.Errorf("elastic.addresses must be set")
	}
	if c.Elastic.Dims <= 0 {
		return fmt.Errorf("elastic.dims must be > 0")
	}
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri must be set")
	}
	return nil
}

// RequestTimeout converts the configured per-request budget into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// NavTimeout returns the headless navigation budget.
func (c CrawlConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}
