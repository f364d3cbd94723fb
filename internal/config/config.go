// Package config loads application configuration from file and environment
// and wires the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Feed   FeedConfig   `yaml:"feed" mapstructure:"feed"`
	Bitrix BitrixConfig `yaml:"bitrix" mapstructure:"bitrix"`
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
	Owner  OwnerConfig  `yaml:"owner" mapstructure:"owner"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// FeedConfig holds the platform feed API settings.
type FeedConfig struct {
	AuthToken       string  `yaml:"auth_token" mapstructure:"auth_token"`
	BayutBaseURL    string  `yaml:"bayut_base_url" mapstructure:"bayut_base_url"`
	DubizzleBaseURL string  `yaml:"dubizzle_base_url" mapstructure:"dubizzle_base_url"`
	Since           string  `yaml:"since" mapstructure:"since"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// BitrixConfig holds the CRM webhook settings.
type BitrixConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	RatePerSec           float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	ListingsEntityTypeID int     `yaml:"listings_entity_type_id" mapstructure:"listings_entity_type_id"`
}

// LedgerConfig configures the processed-lead ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OwnerConfig configures owner assignment.
type OwnerConfig struct {
	DefaultOwnerID  int   `yaml:"default_owner_id" mapstructure:"default_owner_id"`
	ExcludedUserIDs []int `yaml:"excluded_user_ids" mapstructure:"excluded_user_ids"`
	UnknownUserID   int   `yaml:"unknown_user_id" mapstructure:"unknown_user_id"`
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
	v.SetEnvPrefix("VSERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("feed.bayut_base_url", "https://api.bayut.com")
	v.SetDefault("feed.dubizzle_base_url", "https://api.dubizzle.com")
	v.SetDefault("feed.timeout_secs", 60)
	v.SetDefault("feed.rate_per_sec", 2.0)
	v.SetDefault("bitrix.rate_per_sec", 2.0)
	v.SetDefault("bitrix.listings_entity_type_id", 1048)
	v.SetDefault("ledger.driver", "file")
	v.SetDefault("ledger.path", "processed_leads.txt")
	v.SetDefault("owner.default_owner_id", 1)
	v.SetDefault("owner.excluded_user_ids", []int{3, 268})
	v.SetDefault("owner.unknown_user_id", 1945)
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

	return &cfg, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	if c.Feed.AuthToken == "" {
		return eris.New("config: feed.auth_token is required")
	}
	if c.Bitrix.WebhookURL == "" {
		return eris.New("config: bitrix.webhook_url is required")
	}
	switch c.Ledger.Driver {
	case "file", "sqlite":
		if c.Ledger.Path == "" {
			return eris.Errorf("config: ledger.path is required for the %s driver", c.Ledger.Driver)
		}
	case "postgres":
		if c.Ledger.DatabaseURL == "" {
			return eris.New("config: ledger.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown ledger driver %q", c.Ledger.Driver)
	}
	return nil
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
