// Package config loads CLI defaults from criteria.yaml and CRITERIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file name searched for, without extension.
const FileName = "criteria"

// EnvPrefix prefixes environment overrides, e.g. CRITERIA_SCHEMA.
const EnvPrefix = "CRITERIA"

// Config holds defaults for CLI flags. Flags set on the command line
// override these values.
type Config struct {
	// Schema is the schema file or CUE directory path.
	Schema string `mapstructure:"schema"`

	// Database is the SQLite database path used by the query command.
	Database string `mapstructure:"database"`

	// Format is the output format, "text" or "json".
	Format string `mapstructure:"format"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Database: ":memory:",
		Format:   "text",
	}
}

// Load reads criteria.yaml from dir (when non-empty) and the current
// directory, then applies CRITERIA_* environment overrides. A missing
// config file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("schema", defaults.Schema)
	v.SetDefault("database", defaults.Database)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("verbose", defaults.Verbose)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
