// Package config holds the settings shared by every hai command. Values come
// from struct defaults, then an optional YAML file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Backends accepted in Config.Backend
var Backends = []string{"goble", "tinygo"}

// Formats accepted in Config.OutputFormat
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	LogLevel       string        `yaml:"log_level" json:"log_level" default:""`
	Backend        string        `yaml:"backend" json:"backend" default:"goble"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" default:"30s"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout" default:"5s"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval" default:"30s"`
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts" default:"3"`
	OutputFormat   string        `yaml:"output_format" json:"output_format" default:"table"`
	MetricsAddr    string        `yaml:"metrics_addr" json:"metrics_addr" default:""`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if !slices.Contains(Backends, strings.ToLower(c.Backend)) {
		return fmt.Errorf("%w: backend %q (must be one of %v)", ErrInvalidConfig, c.Backend, Backends)
	}
	if !slices.Contains(Formats, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("%w: output format %q (must be one of %v)", ErrInvalidConfig, c.OutputFormat, Formats)
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %v", ErrInvalidConfig, c.PollInterval)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts must not be negative, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	return nil
}

// Level resolves LogLevel. Empty means silent (panic level).
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.PanicLevel, nil
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.PanicLevel, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	level, _ := c.Level()

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
