// Package tinyble is a GATT backend built on tinygo.org/x/bluetooth. Unlike the
// go-ble backend it talks to BlueZ over D-Bus on Linux, so it works without raw
// HCI socket privileges.
package tinyble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/hai/internal/device"
	"tinygo.org/x/bluetooth"
)

const (
	// DefaultReadTimeout is the default timeout for characteristic read operations
	DefaultReadTimeout = 5 * time.Second

	// maxAttributeSize is the largest value an ATT attribute can hold
	maxAttributeSize = 512
)

// characteristic is the subset of bluetooth.DeviceCharacteristic a read needs
type characteristic interface {
	Read(data []byte) (int, error)
}

// link is a connected peripheral
type link interface {
	// Discover returns every characteristic keyed by normalized UUID
	Discover() (map[string]characteristic, error)
	Disconnect() error
}

// enableAdapter powers the adapter up (can be overridden in tests)
var enableAdapter = func(adapter *bluetooth.Adapter) error {
	return adapter.Enable()
}

// connect opens a link to address through adapter (can be overridden in tests).
// It blocks for as long as the platform stack keeps trying.
var connect = func(adapter *bluetooth.Adapter, address string, logger *logrus.Logger) (link, error) {
	var addr bluetooth.Address
	addr.Set(address)

	dev, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}
	return &deviceLink{dev: dev, logger: logger}, nil
}

// deviceLink is a link over a real tinygo bluetooth device
type deviceLink struct {
	dev    bluetooth.Device
	logger *logrus.Logger
}

func (l *deviceLink) Discover() (map[string]characteristic, error) {
	svcs, err := l.dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", device.NormalizeError(err))
	}
	chars := make(map[string]characteristic)
	for _, svc := range svcs {
		found, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to discover characteristics of %s: %w", svc.UUID().String(), device.NormalizeError(err))
		}
		for _, char := range found {
			uuid := device.NormalizeUUID(char.UUID().String())
			l.logger.WithField("char_uuid", uuid).Debug("Found characteristic UUID")
			ch := char
			chars[uuid] = &ch
		}
	}
	return chars, nil
}

func (l *deviceLink) Disconnect() error {
	return l.dev.Disconnect()
}

// Connector opens connections through the default tinygo adapter.
// The adapter is enabled once, on first connect.
type Connector struct {
	adapter *bluetooth.Adapter
	logger  *logrus.Logger

	enableOnce sync.Once
	enableErr  error
}

// NewConnector creates a tinygo bluetooth backed device.Connector
func NewConnector(logger *logrus.Logger) *Connector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Connector{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
	}
}

func (c *Connector) enable() error {
	c.enableOnce.Do(func() {
		if err := enableAdapter(c.adapter); err != nil {
			c.enableErr = fmt.Errorf("failed to enable bluetooth adapter: %w", device.NormalizeError(err))
		}
	})
	return c.enableErr
}

// Connect connects to the peripheral and discovers all characteristics.
// A connection that completes after ctx or the connect timeout gave up is
// closed in the background.
func (c *Connector) Connect(ctx context.Context, opts *device.ConnectOptions) (device.Connection, error) {
	if opts == nil || strings.TrimSpace(opts.Address) == "" {
		return nil, fmt.Errorf("device address is empty")
	}
	if err := c.enable(); err != nil {
		return nil, err
	}

	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	connCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	log := c.logger.WithField("address", opts.Address)
	log.Info("Connecting to BLE device...")

	// connect blocks with its own timeout; wrap it so ctx is honoured too.
	type connectResult struct {
		link link
		err  error
	}
	ch := make(chan connectResult, 1)
	go func() {
		l, err := connect(c.adapter, opts.Address, c.logger)
		ch <- connectResult{link: l, err: err}
	}()

	var l link
	select {
	case <-connCtx.Done():
		go func() {
			if result := <-ch; result.err == nil {
				log.Warn("Connection completed after giving up, disconnecting")
				if err := result.link.Disconnect(); err != nil {
					log.WithError(err).Warn("Failed to disconnect late connection")
				}
			}
		}()
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", opts.Address, device.NormalizeError(connCtx.Err()))
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("failed to connect to device with address %q: %w", opts.Address, device.NormalizeError(result.err))
		}
		l = result.link
	}

	chars, err := l.Discover()
	if err != nil {
		_ = l.Disconnect()
		return nil, err
	}

	log.WithField("characteristics", len(chars)).Info("BLE device connected successfully")
	return &Connection{
		link:        l,
		address:     opts.Address,
		readTimeout: readTimeout,
		logger:      c.logger,
		chars:       chars,
	}, nil
}

// Connection is one live tinygo bluetooth connection
type Connection struct {
	link        link
	address     string
	readTimeout time.Duration
	logger      *logrus.Logger

	mu     sync.Mutex // serialises reads into the shared buffer
	buf    [maxAttributeSize]byte
	chars  map[string]characteristic
	closed atomic.Bool
}

// ReadCharacteristic reads the current value of a characteristic by UUID
func (c *Connection) ReadCharacteristic(ctx context.Context, uuid string) ([]byte, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("%w: characteristic %s", device.ErrNotConnected, uuid)
	}

	key := device.NormalizeUUID(uuid)
	char, ok := c.chars[key]
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUID: uuid}
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		n, err := char.Read(c.buf[:])
		if err != nil {
			resultCh <- readResult{err: err}
			return
		}
		data := make([]byte, n)
		copy(data, c.buf[:n])
		resultCh <- readResult{data: data}
	}()

	timer := time.NewTimer(c.readTimeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, fmt.Errorf("failed to read characteristic %s: %w", key, device.NormalizeError(result.err))
		}
		return result.data, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: reading characteristic %s after %v", device.ErrTimeout, key, c.readTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Disconnect closes the connection. Safe to call more than once.
func (c *Connection) Disconnect() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.WithField("address", c.address).Info("Disconnecting BLE device...")
	if err := c.link.Disconnect(); err != nil {
		return device.NormalizeError(err)
	}
	return nil
}
