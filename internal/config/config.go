package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dineshlahiru/contactsync/internal/cost"
	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Pricing   cost.Rates      `yaml:"pricing" mapstructure:"pricing"`
	Budget    BudgetConfig    `yaml:"budget" mapstructure:"budget"`
	Sync      SyncConfig      `yaml:"sync" mapstructure:"sync"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string           `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (last-resort fallback).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig configures the transport fallback chain.
type FetchConfig struct {
	FallbackRPS   float64 `yaml:"fallback_rps" mapstructure:"fallback_rps"`
	FallbackBurst int     `yaml:"fallback_burst" mapstructure:"fallback_burst"`
}

// BudgetConfig holds the default budget gate settings; operator-stored
// settings override these at runtime.
type BudgetConfig struct {
	MonthlyLimitUSD       float64 `yaml:"monthly_limit_usd" mapstructure:"monthly_limit_usd"`
	AlertThresholdPercent int     `yaml:"alert_threshold_percent" mapstructure:"alert_threshold_percent"`
	PauseOnExhausted      bool    `yaml:"pause_on_exhausted" mapstructure:"pause_on_exhausted"`
	AlertWebhookURL       string  `yaml:"alert_webhook_url" mapstructure:"alert_webhook_url"`
}

// Defaults returns the budget config as model settings.
func (b BudgetConfig) Defaults() model.BudgetSettings {
	return model.BudgetSettings{
		MonthlyLimitUSD:       b.MonthlyLimitUSD,
		AlertThresholdPercent: b.AlertThresholdPercent,
		PauseOnExhausted:      b.PauseOnExhausted,
	}
}

// SyncConfig configures batch sync behavior.
type SyncConfig struct {
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
	ClassifierRules  string `yaml:"classifier_rules" mapstructure:"classifier_rules"`
	DefaultFrequency string `yaml:"default_frequency" mapstructure:"default_frequency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTACTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "contactsync.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("fetch.fallback_rps", 1.0)
	v.SetDefault("fetch.fallback_burst", 2)
	v.SetDefault("budget.monthly_limit_usd", 5.00)
	v.SetDefault("budget.alert_threshold_percent", 80)
	v.SetDefault("budget.pause_on_exhausted", true)
	v.SetDefault("sync.concurrency", 3)
	v.SetDefault("sync.default_frequency", "weekly")
	v.SetDefault("pricing.anthropic", map[string]cost.ModelRate{
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
	})
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("pricing.firecrawl.per_scrape", 0.01)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
