package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the engine settings shared by the CLI and embedders.
type Config struct {
	Path           string `yaml:"-" toml:"-"`
	Debug          bool   `yaml:"debug" toml:"debug"`
	MaxWorkers     int    `yaml:"max_workers" toml:"max_workers"`
	MaxDepth       int    `yaml:"max_depth" toml:"max_depth"`
	StreamCapacity int    `yaml:"stream_capacity" toml:"stream_capacity"`
	LogLevel       string `yaml:"log_level" toml:"log_level"`
	LogFormat      string `yaml:"log_format" toml:"log_format"`
}

// DefaultConfigNames are tried, in order, when no config path is given.
var DefaultConfigNames = []string{"roda.yaml", "roda.yml", "roda.toml"}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Debug:     true,
		MaxDepth:  1000,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// LoadConfig reads the config at path, or the first of DefaultConfigNames in
// the working directory when path is empty, then applies RODA_* environment
// overrides. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		for _, name := range DefaultConfigNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", abs, err)
	}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".toml":
		meta, err := toml.Decode(string(data), c)
		if err != nil {
			return fmt.Errorf("config: parse %s: %w", abs, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("config: parse %s: unknown key %s", abs, undecoded[0])
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: parse %s: %w", abs, err)
		}
	default:
		return fmt.Errorf("config: unsupported format %q", filepath.Ext(abs))
	}
	c.Path = abs
	return nil
}

// applyEnv overrides settings from RODA_* variables. The env cache is
// reloaded first so variables set since the last load are seen.
func (c *Config) applyEnv() {
	env.Load()
	if env.Has("RODA_DEBUG") {
		c.Debug = env.Bool("RODA_DEBUG")
	}
	c.MaxWorkers = env.Int("RODA_MAX_WORKERS", c.MaxWorkers)
	c.MaxDepth = env.Int("RODA_MAX_DEPTH", c.MaxDepth)
	c.StreamCapacity = env.Int("RODA_STREAM_CAPACITY", c.StreamCapacity)
	c.LogLevel = env.Str("RODA_LOG_LEVEL", c.LogLevel)
	c.LogFormat = env.Str("RODA_LOG_FORMAT", c.LogFormat)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.MaxWorkers < 0 {
		return fmt.Errorf("config: max_workers must not be negative (got %d)", c.MaxWorkers)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("config: max_depth must be positive (got %d)", c.MaxDepth)
	}
	if c.StreamCapacity < 0 {
		return fmt.Errorf("config: stream_capacity must not be negative (got %d)", c.StreamCapacity)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json (got %q)", c.LogFormat)
	}
	return nil
}
