// Package config loads settings for the pdfstream command-line tools.
//
// Configuration comes from a YAML file named by the --config flag or the
// PDFSTREAM_CONFIG environment variable. Values missing from the file keep
// their defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdfstream/core"
	"github.com/tsawler/pdfstream/resolver"
)

// EnvVar names the environment variable consulted by Load.
const EnvVar = "PDFSTREAM_CONFIG"

// Config is the complete tool configuration.
type Config struct {
	Decode   DecodeConfig   `yaml:"decode"`
	Resolver ResolverConfig `yaml:"resolver"`
	Log      LogConfig      `yaml:"log"`
}

// DecodeConfig controls stream decoding.
type DecodeConfig struct {
	// MaxDecodedSize caps the output of each filter stage, in bytes.
	// Zero disables the cap.
	MaxDecodedSize int `yaml:"max_decoded_size"`

	// StrictHeader restricts object stream headers to the bytes before
	// /First.
	StrictHeader bool `yaml:"strict_header"`
}

// ResolverConfig controls reference resolution.
type ResolverConfig struct {
	MaxDepth int  `yaml:"max_depth"`
	Cache    bool `yaml:"cache"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			MaxDecodedSize: 256 << 20,
			StrictHeader:   true,
		},
		Resolver: ResolverConfig{
			MaxDepth: 100,
			Cache:    true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the file named by PDFSTREAM_CONFIG, or returns the defaults
// when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, on top of the
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Decode.MaxDecodedSize < 0 {
		return fmt.Errorf("decode.max_decoded_size must not be negative, got %d", c.Decode.MaxDecodedSize)
	}
	if c.Resolver.MaxDepth <= 0 {
		return fmt.Errorf("resolver.max_depth must be positive, got %d", c.Resolver.MaxDepth)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// DecodeOptions converts the decode section to core options.
func (c *Config) DecodeOptions() []core.DecodeOption {
	return []core.DecodeOption{
		core.WithMaxDecodedSize(c.Decode.MaxDecodedSize),
		core.WithStrictHeader(c.Decode.StrictHeader),
	}
}

// ResolverOptions converts the resolver section to resolver options.
func (c *Config) ResolverOptions() []resolver.Option {
	opts := []resolver.Option{resolver.WithMaxDepth(c.Resolver.MaxDepth)}
	if c.Resolver.Cache {
		opts = append(opts, resolver.WithCache())
	}
	return opts
}
