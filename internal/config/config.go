package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig         `yaml:"store" mapstructure:"store"`
	Buckets BucketConfig        `yaml:"buckets" mapstructure:"buckets"`
	Clients []model.ClientScope `yaml:"clients" mapstructure:"clients"`
	Server  ServerConfig        `yaml:"server" mapstructure:"server"`
	Log     LogConfig           `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the warehouse backend. The DSN may be supplied
// inline, base64-encoded (env-safe), or as a file path; see ResolveDSN.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	DatabaseURLB64  string `yaml:"database_url_b64" mapstructure:"database_url_b64"`
	DatabaseURLFile string `yaml:"database_url_file" mapstructure:"database_url_file"`
	SourceTable     string `yaml:"source_table" mapstructure:"source_table"`
	TargetTable     string `yaml:"target_table" mapstructure:"target_table"`
}

// BucketConfig locates the keyword buckets under a filesystem root.
type BucketConfig struct {
	Root      string `yaml:"root" mapstructure:"root"`
	Context   string `yaml:"context" mapstructure:"context"`
	Negatives string `yaml:"negatives" mapstructure:"negatives"`
}

// ServerConfig configures the HTTP trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("SENTIMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	// Empty defaults register the keys so env-only values survive Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.database_url_b64", "")
	v.SetDefault("store.database_url_file", "")
	v.SetDefault("store.source_table", "google_search_console_web_url_query")
	v.SetDefault("store.target_table", "search_query_sentiment")
	v.SetDefault("buckets.root", "./buckets")
	v.SetDefault("buckets.context", "ems-codex-standard-test")
	v.SetDefault("buckets.negatives", "ems-codex-versioned")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	// Single-client fallback, matching the historical deployment.
	if len(cfg.Clients) == 0 {
		cfg.Clients = []model.ClientScope{{
			Dataset:       "turquoiseholidays_co_uk",
			Project:       "ems-codex-test",
			KeywordBucket: cfg.Buckets.Context,
		}}
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
