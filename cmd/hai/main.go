package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hai",
	Short: "Hai smart shower head telemetry reader",
	Long: `Reads telemetry from a Hai smart shower head over Bluetooth Low Energy:

- Poll a single snapshot: firmware identity, current and last shower
- Watch a device on an interval and export readings to Prometheus
- Decode captured characteristic payloads offline
- List the known Hai GATT characteristics`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("hai {{.Version}} (commit %s, built %s)\n", commit, date))

	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(catalogCmd)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.Bool("verbose", false, "Verbose output (same as --log-level debug)")
	flags.String("backend", "", "BLE backend (goble, tinygo)")
	flags.Duration("connect-timeout", 0, "Connection timeout (default from config, 30s)")
	flags.Duration("read-timeout", 0, "Per characteristic read timeout (default from config, 5s)")
	flags.Int("max-attempts", 0, "Connect attempts per poll (default from config, 3)")
	flags.StringP("format", "f", "", "Output format (table, json, yaml)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
