package config

import "github.com/Strasser-Pablo/trainlaunch/internal/runconfig"

// Config holds all configuration for a launch
type Config struct {
	Interpreter     string              `mapstructure:"interpreter"`
	InterpreterArgs []string            `mapstructure:"interpreter_args"`
	Program         string              `mapstructure:"program"`
	WorkDir         string              `mapstructure:"workdir"`
	DatasetDir      string              `mapstructure:"dataset_dir"`
	DebugLevel      int                 `mapstructure:"debug_level"`
	Strict          bool                `mapstructure:"strict"`
	Log             LogConfig           `mapstructure:"log"`
	Checkpoints     CheckpointConfig    `mapstructure:"checkpoints"`
	Storage         StorageConfig       `mapstructure:"storage"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	Sentry          SentryConfig        `mapstructure:"sentry"`
	Run             runconfig.RunConfig `mapstructure:"run"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CheckpointConfig controls tracking of the checkpoints the trainer writes
type CheckpointConfig struct {
	Dir    string `mapstructure:"dir"`
	Watch  bool   `mapstructure:"watch"`
	Upload bool   `mapstructure:"upload"`
}

// StorageConfig holds S3-compatible object storage configuration
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// Enabled reports whether an endpoint is configured
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// MetricsConfig holds Prometheus Pushgateway configuration
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// SentryConfig holds failure reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// DebugLvl returns DebugLevel clipped to the range the trainer understands.
func (c *Config) DebugLvl() int {
	switch {
	case c.DebugLevel < 0:
		return 0
	case c.DebugLevel > 3:
		return 3
	}
	return c.DebugLevel
}
