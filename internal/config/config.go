package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Lake     LakeConfig     `mapstructure:"lake"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type StoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type LakeConfig struct {
	Bucket        string `mapstructure:"bucket"`
	RawPrefix     string `mapstructure:"raw_prefix"`
	TrustedPrefix string `mapstructure:"trusted_prefix"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
}

type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type PipelineConfig struct {
	Workers        int  `mapstructure:"workers"`
	EnrichMetadata bool `mapstructure:"enrich_metadata"`
}

type RoutingConfig struct {
	FinanceSchema string   `mapstructure:"finance_schema"`
	FinanceTables []string `mapstructure:"finance_tables"`
	LegacyDomain  string   `mapstructure:"legacy_domain"`
	LegacyTable   string   `mapstructure:"legacy_table"`
	RoutesFile    string   `mapstructure:"routes_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8094)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("store.endpoint", "localhost:9000")
	v.SetDefault("store.access_key", "minioadmin")
	v.SetDefault("store.secret_key", "minioadmin")
	v.SetDefault("store.region", "")
	v.SetDefault("store.use_ssl", false)
	v.SetDefault("lake.bucket", "smartstream-lake")
	v.SetDefault("lake.raw_prefix", "data/raw/")
	v.SetDefault("lake.trusted_prefix", "data/trusted/")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "lake.raw.events")
	v.SetDefault("nats.queue", "refinery")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.flush_interval", "30s")
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.enrich_metadata", false)
	v.SetDefault("routing.finance_schema", "finance")
	v.SetDefault("routing.finance_tables", []string{"transactions", "accounts"})
	v.SetDefault("routing.legacy_domain", "legacy")
	v.SetDefault("routing.legacy_table", "records")
	v.SetDefault("routing.routes_file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/smartstream/refinery")
	}

	// Environment variables override
	v.SetEnvPrefix("REFINERY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Recognized unprefixed options used by existing deployments
	_ = v.BindEnv("routing.finance_schema", "FINANCE_SCHEMA_NAME")
	_ = v.BindEnv("routing.finance_tables", "FINANCE_TABLE_LIST")

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
