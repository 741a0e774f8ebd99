package inspector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/hai/internal/device"
)

// Progress phases reported through ProgressCallback
const (
	PhaseConnecting = "Connecting"
	PhaseConnected  = "Connected"
	PhaseReading    = "Reading"
	PhaseFailed     = "Failed"
)

// ProgressCallback is called when the inspection phase changes
type ProgressCallback func(phase string)

// InspectOptions defines options for one connect-read-disconnect cycle
type InspectOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// InspectCallback processes a connected device and produces output of type R
type InspectCallback[R any] func(ctx context.Context, conn device.Connection) (R, error)

// InspectDevice connects to the device at address, runs callback against the live
// connection and disconnects afterwards, whatever the callback returned.
// Optional progressCallback can be provided for connection progress updates.
func InspectDevice[R any](
	ctx context.Context,
	connector device.Connector,
	address string,
	opts *InspectOptions,
	logger *logrus.Logger,
	progressCallback ProgressCallback,
	callback InspectCallback[R],
) (R, error) {
	var zero R
	if strings.TrimSpace(address) == "" {
		return zero, fmt.Errorf("device address is empty")
	}
	if opts == nil {
		opts = &InspectOptions{ConnectTimeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	progressCallback(PhaseConnecting)

	conn, err := connector.Connect(ctx, &device.ConnectOptions{
		Address:        address,
		ConnectTimeout: opts.ConnectTimeout,
		ReadTimeout:    opts.ReadTimeout,
	})
	if err != nil {
		progressCallback(PhaseFailed)
		return zero, err
	}

	progressCallback(PhaseConnected)

	defer func() {
		if err := conn.Disconnect(); err != nil {
			logger.WithError(err).WithField("address", address).Error("failed to disconnect device")
		}
	}()

	progressCallback(PhaseReading)

	result, err := callback(ctx, conn)
	if err != nil {
		progressCallback(PhaseFailed)
		return zero, err
	}
	return result, nil
}
