// Package config loads the metamodel CLI configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/syssam/metamodel"
)

// EnvPrefix prefixes the environment variables overriding configuration
// keys: METAMODEL_GEN_TARGET overrides gen.target.
const EnvPrefix = "METAMODEL"

// Config represents the metamodel configuration.
type Config struct {
	Schema         string         `mapstructure:"schema"`
	ChangeTracking string         `mapstructure:"change_tracking"`
	Log            LogConfig      `mapstructure:"log"`
	Gen            GenConfig      `mapstructure:"gen"`
	Snapshot       SnapshotConfig `mapstructure:"snapshot"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// GenConfig represents code generation configuration.
type GenConfig struct {
	Target  string `mapstructure:"target"`
	Package string `mapstructure:"package"`
	Header  string `mapstructure:"header"`
	Workers int    `mapstructure:"workers"`

	// Features enables optional codegen features by name.
	Features []string `mapstructure:"features"`
}

// SnapshotConfig represents snapshot configuration.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("schema", "schema.yaml")
	v.SetDefault("change_tracking", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("gen.target", "entity")
	v.SetDefault("gen.package", "entity")
	v.SetDefault("gen.header", "Code generated by metamodel. DO NOT EDIT.")
	v.SetDefault("gen.workers", 0)
	v.SetDefault("gen.features", []string{})
	v.SetDefault("snapshot.path", ".metamodel/snapshot.msgpack")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An empty path searches the working directory
// for metamodel.yaml; a missing file there falls back to defaults, while a
// missing explicit path is an error.
func Load(path string) (*Config, error) {
	return LoadWith(New(), path)
}

// LoadWith reads the configuration into v, which may carry bound flags.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("metamodel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if _, err := metamodel.ParseChangeTrackingStrategy(c.ChangeTracking); err != nil {
		return fmt.Errorf("change_tracking: %w", err)
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return err
	}
	if c.Gen.Workers < 0 {
		return fmt.Errorf("gen.workers must not be negative, got: %d", c.Gen.Workers)
	}
	return nil
}

// ZapLevel parses the configured log level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Strategy returns the configured change tracking strategy.
func (c *Config) Strategy() metamodel.ChangeTrackingStrategy {
	s, _ := metamodel.ParseChangeTrackingStrategy(c.ChangeTracking)
	return s
}
