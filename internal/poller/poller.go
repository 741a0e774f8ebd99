// Package poller drives the connect, read, disconnect cycle against a shower
// head, retrying failed polls and repeating them on an interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/srg/hai/inspector"
	"github.com/srg/hai/internal/codec"
	"github.com/srg/hai/internal/device"
	"github.com/srg/hai/internal/groutine"
	"github.com/srg/hai/internal/telemetry"
)

// Options controls connection timeouts and retry behaviour of a single poll
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxAttempts    int // 1 disables retries, 0 retries until ctx is done
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 30 * time.Second,
		ReadTimeout:    5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
	}
}

// Result is the outcome of one watch cycle. Exactly one of Snapshot and Err is meaningful.
type Result struct {
	Address  string
	At       time.Time
	Snapshot telemetry.Snapshot
	Err      error
}

// Handler receives every watch cycle outcome
type Handler func(Result)

// Poller reads snapshots from devices through a device.Connector
type Poller struct {
	connector device.Connector
	reader    *telemetry.Reader
	logger    *logrus.Logger
	opts      Options
	progress  inspector.ProgressCallback
}

// Option configures a Poller
type Option func(*Poller)

// WithOptions replaces the default Options
func WithOptions(opts Options) Option {
	return func(p *Poller) {
		p.opts = opts
	}
}

// WithProgress reports connection phases of every attempt
func WithProgress(cb inspector.ProgressCallback) Option {
	return func(p *Poller) {
		p.progress = cb
	}
}

// New creates a Poller
func New(connector device.Connector, reader *telemetry.Reader, logger *logrus.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = logrus.New()
	}
	if reader == nil {
		reader = telemetry.NewReader(logger)
	}
	p := &Poller{
		connector: connector,
		reader:    reader,
		logger:    logger,
		opts:      DefaultOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll opens a fresh connection, reads one snapshot and disconnects. A failed
// attempt is retried as a whole with exponential backoff; decode failures and
// cancellation are not retried.
func (p *Poller) Poll(ctx context.Context, address string) (telemetry.Snapshot, error) {
	var (
		snap     telemetry.Snapshot
		attempts int
	)

	operation := func() error {
		attempts++
		s, err := inspector.InspectDevice(ctx, p.connector, address,
			&inspector.InspectOptions{
				ConnectTimeout: p.opts.ConnectTimeout,
				ReadTimeout:    p.opts.ReadTimeout,
			},
			p.logger, p.progress,
			func(ctx context.Context, conn device.Connection) (telemetry.Snapshot, error) {
				return p.reader.ReadSnapshot(ctx, conn)
			})
		if err != nil {
			if isPermanent(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		snap = s
		return nil
	}

	notify := func(err error, next time.Duration) {
		p.logger.WithFields(logrus.Fields{
			"address":  address,
			"attempt":  attempts,
			"retry_in": next,
		}).WithError(err).Warn("Poll failed, retrying")
	}

	if err := backoff.RetryNotify(operation, p.newBackOff(ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(ctxErr, err)
		}
		return telemetry.Snapshot{}, fmt.Errorf("poll %s failed after %d attempt(s): %w", address, attempts, err)
	}

	p.logger.WithFields(logrus.Fields{
		"address":        address,
		"attempts":       attempts,
		"session_active": snap.SessionActive,
	}).Debug("Poll succeeded")

	return snap, nil
}

// Watch polls address immediately and then once per interval until ctx is done.
// Every outcome, success or failure, is handed to handler; a failed cycle yields
// no data and does not reuse the previous snapshot. Cancellation of an in-flight
// poll is not reported. Watch returns ctx.Err().
func (p *Poller) Watch(ctx context.Context, address string, interval time.Duration, handler Handler) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %v", interval)
	}
	if handler == nil {
		handler = func(Result) {}
	}

	done := groutine.Go(ctx, "watch-"+address, func(ctx context.Context) {
		log := p.logger.WithFields(logrus.Fields{
			"address":   address,
			"goroutine": groutine.GetName(ctx),
			"interval":  interval,
		})
		log.Debug("Watch started")
		defer log.Debug("Watch stopped")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			snap, err := p.Poll(ctx, address)
			if ctx.Err() != nil {
				return
			}
			handler(Result{Address: address, At: time.Now(), Snapshot: snap, Err: err})

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
	<-done

	return ctx.Err()
}

func (p *Poller) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.opts.InitialBackoff > 0 {
		eb.InitialInterval = p.opts.InitialBackoff
	}
	if p.opts.MaxBackoff > 0 {
		eb.MaxInterval = p.opts.MaxBackoff
	}
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	switch {
	case p.opts.MaxAttempts == 1:
		// WithMaxRetries treats 0 retries as unlimited
		b = &backoff.StopBackOff{}
	case p.opts.MaxAttempts > 1:
		b = backoff.WithMaxRetries(b, uint64(p.opts.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// isPermanent reports errors a reconnect cannot fix
func isPermanent(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, codec.ErrLayoutMismatch),
		errors.Is(err, codec.ErrInvalidKey),
		errors.Is(err, device.ErrBluetoothOff):
		return true
	}
	return false
}
