package config

import (
	"strings"

	"embsurvey/internal/errors"

	"github.com/spf13/viper"
)

// envPrefix scopes every setting, e.g. EMBSURVEY_PIPELINE_COMPLETION_THRESHOLD
const envPrefix = "EMBSURVEY"

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig     `mapstructure:"paths"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

// PathConfig holds file system paths
type PathConfig struct {
	Input      string `mapstructure:"input"`
	OutputDir  string `mapstructure:"output_dir"`
	Instrument string `mapstructure:"instrument"` // optional YAML replacing the embedded instrument
}

// PipelineConfig holds data processing settings
type PipelineConfig struct {
	CompletionThreshold float64 `mapstructure:"completion_threshold"`
	StrictSchema        bool    `mapstructure:"strict_schema"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the optional SQL sink. An empty driver disables it.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Enabled reports whether a SQL sink is configured
func (d DatabaseConfig) Enabled() bool { return d.Driver != "" }

var defaults = map[string]interface{}{
	"paths.input":                   "",
	"paths.output_dir":              "data",
	"paths.instrument":              "",
	"pipeline.completion_threshold": 15.0,
	"pipeline.strict_schema":        false,
	"log.level":                     "info",
	"log.format":                    "console",
	"database.driver":               "",
	"database.dsn":                  "",
}

// newViper registers every key with a default so AutomaticEnv can resolve
// nested keys during Unmarshal
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load reads configuration from EMBSURVEY_* environment variables, merged
// over an optional YAML file, and validates it
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid,
				errors.Wrapf(err, "failed to read config file %q", configPath))
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid,
			errors.Wrap(err, "failed to unmarshal configuration"))
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Pipeline.CompletionThreshold < 0 || c.Pipeline.CompletionThreshold > 100 {
		return errors.ConfigInvalid("completion threshold must be within 0-100")
	}
	if c.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.ConfigInvalid("log format must be console or json")
	}
	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return errors.ConfigInvalid("database driver must be sqlite or postgres")
	}
	if c.Database.Enabled() && c.Database.DSN == "" {
		return errors.ConfigInvalid("database DSN is required when a driver is set")
	}
	return nil
}
