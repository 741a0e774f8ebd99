package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/hai/internal/devicefactory"
	"github.com/srg/hai/internal/poller"
	"github.com/srg/hai/internal/telemetry"
	"github.com/srg/hai/pkg/config"
)

// pollCmd represents the poll command
var pollCmd = &cobra.Command{
	Use:   "poll <device-address>",
	Short: "Read one telemetry snapshot",
	Long: fmt.Sprintf(`Connects to the shower head, reads identity, current session (while
water is running) and last session, then disconnects.

Examples:
  # Human readable table
  hai poll %s

  # JSON for scripts
  hai poll %s --format json

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

// newPoller wires the configured backend, reader and retry options
func newPoller(cfg *config.Config, logger *logrus.Logger, progress *ProgressPrinter) (*poller.Poller, error) {
	connector, err := devicefactory.NewConnector(cfg.Backend, logger)
	if err != nil {
		return nil, err
	}

	opts := poller.DefaultOptions()
	opts.ConnectTimeout = cfg.ConnectTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.MaxAttempts = cfg.MaxAttempts

	return poller.New(connector, telemetry.NewReader(logger), logger,
		poller.WithOptions(opts),
		poller.WithProgress(progress.Callback()),
	), nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runPoll(cmd *cobra.Command, args []string) error {
	address := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := configureLogger(cfg)

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	progress := newTerminalProgress(fmt.Sprintf("Polling %s", address))
	progress.Start()
	defer progress.Stop()

	p, err := newPoller(cfg, logger, progress)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	snap, err := p.Poll(ctx, address)
	progress.Stop()
	if err != nil {
		return err
	}

	return writeSnapshot(cmd.OutOrStdout(), cfg.OutputFormat, address, snap)
}
