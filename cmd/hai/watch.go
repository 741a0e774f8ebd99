package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/hai/internal/metrics"
	"github.com/srg/hai/internal/poller"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <device-address>",
	Short: "Poll a device on an interval",
	Long: fmt.Sprintf(`Polls the shower head every --interval until interrupted. Each poll opens
a fresh connection; a failed poll is reported as "no data" and the next one
starts on schedule.

Examples:
  # Print a line every 30 seconds
  hai watch %s

  # Poll every 10 seconds and serve Prometheus metrics
  hai watch %s --interval 10s --metrics-addr :9105

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

const metricsShutdownTimeout = 5 * time.Second

func init() {
	watchCmd.Flags().Duration("interval", 30*time.Second, "Time between polls")
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9105)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	address := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := configureLogger(cfg)

	cmd.SilenceUsage = true

	p, err := newPoller(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	exporter := metrics.NewExporter()
	if cfg.MetricsAddr != "" {
		_, stop, err := serveMetrics(ctx, cfg.MetricsAddr, exporter, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	out := cmd.OutOrStdout()
	err = p.Watch(ctx, address, cfg.PollInterval, func(res poller.Result) {
		exporter.Observe(res)
		if res.Err != nil {
			logger.WithError(res.Err).WithField("address", res.Address).Warn("Poll failed")
		}
		if err := writeWatchResult(out, cfg.OutputFormat, res); err != nil {
			logger.WithError(err).Error("failed to write watch output")
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serveMetrics starts the metrics listener on addr. It returns the bound address
// and a function that shuts the server down.
func serveMetrics(ctx context.Context, addr string, exporter *metrics.Exporter, logger *logrus.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.WithField("addr", ln.Addr().String()).Info("Serving metrics")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()

	return ln.Addr().String(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown failed")
		}
	}, nil
}
