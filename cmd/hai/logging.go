package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/hai/pkg/config"
)

// loadConfig reads --config (if any) and applies the global flags the user set
// explicitly on top of it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	} else if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("connect-timeout") {
		cfg.ConnectTimeout, _ = flags.GetDuration("connect-timeout")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout, _ = flags.GetDuration("read-timeout")
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts, _ = flags.GetInt("max-attempts")
	}
	if flags.Changed("format") {
		cfg.OutputFormat, _ = flags.GetString("format")
	}
	if flags.Lookup("interval") != nil && flags.Changed("interval") {
		cfg.PollInterval, _ = flags.GetDuration("interval")
	}
	if flags.Lookup("metrics-addr") != nil && flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogger creates a logger with the level resolved from config and flags.
// --log-level takes precedence over --verbose; with neither, the logger is silent.
// The level was already checked by loadConfig.
func configureLogger(cfg *config.Config) *logrus.Logger {
	return cfg.NewLogger()
}
