package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Producers ProducersConfig `mapstructure:"producers"`
	Fusion    FusionConfig    `mapstructure:"fusion"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// TracingConfig enables span export; an empty endpoint disables tracing.
type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	ListenAddress   string `mapstructure:"listen_address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProducersConfig holds the settings for the two inference backends.
type ProducersConfig struct {
	Primary      ProducerConfig `mapstructure:"primary"`
	Secondary    ProducerConfig `mapstructure:"secondary"`
	CacheEnabled bool           `mapstructure:"cache_enabled"`
	CacheTTL     int            `mapstructure:"cache_ttl"` // seconds
}

type ProducerConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// FusionConfig holds the fusion engine settings. It is translated into a
// fusion.Config exactly once at startup; the orchestrator never re-reads it.
type FusionConfig struct {
	Algorithm        string  `mapstructure:"algorithm"`
	WeightStrategy   string  `mapstructure:"weight_strategy"`
	MinConfidence    float64 `mapstructure:"min_confidence"`
	CheckpointBoost  float64 `mapstructure:"checkpoint_boost"`
	CheckpointValues []int   `mapstructure:"checkpoint_values"`
	LearningEnabled  bool    `mapstructure:"learning_enabled"`
	LearningRate     float64 `mapstructure:"learning_rate"`
	Timeout          int     `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	if cfg.Producers.Primary.BaseURL == "" {
		return fmt.Errorf("producers.primary.base_url is required")
	}
	if cfg.Producers.Secondary.BaseURL == "" {
		return fmt.Errorf("producers.secondary.base_url is required")
	}
	if cfg.Producers.CacheEnabled && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when producers.cache_enabled is set")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "fusion-engine"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Producers.Primary.MaxRetries == 0 {
		cfg.Producers.Primary.MaxRetries = 2
	}
	if cfg.Producers.Secondary.MaxRetries == 0 {
		cfg.Producers.Secondary.MaxRetries = 2
	}
	if cfg.Producers.CacheTTL == 0 {
		cfg.Producers.CacheTTL = 300
	}
	if cfg.Fusion.Algorithm == "" {
		cfg.Fusion.Algorithm = "ensemble"
	}
	if cfg.Fusion.WeightStrategy == "" {
		cfg.Fusion.WeightStrategy = "confidence"
	}
	if cfg.Fusion.MinConfidence == 0 {
		cfg.Fusion.MinConfidence = 0.5
	}
	if cfg.Fusion.CheckpointBoost == 0 {
		cfg.Fusion.CheckpointBoost = 1.5
	}
	if len(cfg.Fusion.CheckpointValues) == 0 {
		cfg.Fusion.CheckpointValues = []int{3, 6, 9}
	}
	if cfg.Fusion.LearningRate == 0 {
		cfg.Fusion.LearningRate = 0.1
	}
	if cfg.Fusion.Timeout == 0 {
		cfg.Fusion.Timeout = 5000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
