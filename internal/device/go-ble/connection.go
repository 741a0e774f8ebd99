package goble

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/hai/internal/device"
)

// ----------------------------
// Configuration Constants
// ----------------------------

const (
	// DefaultConnectTimeout bounds dialing plus profile discovery
	DefaultConnectTimeout = 30 * time.Second

	// DefaultReadTimeout is the default timeout for characteristic read operations.
	// This prevents indefinite blocking if a device becomes unresponsive during a read.
	DefaultReadTimeout = 5 * time.Second
)

// gattClient is the subset of ble.Client a poll needs
type gattClient interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	CancelConnection() error
}

// ----------------------------
// Device Factory
// ----------------------------

// DeviceFactory creates the platform ble.Device (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// dial connects to address through dev (can be overridden in tests)
var dial = func(ctx context.Context, dev ble.Device, address string) (gattClient, error) {
	client, err := dev.Dial(ctx, ble.NewAddr(address))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ----------------------------
// Connector
// ----------------------------

// Connector opens go-ble connections. The platform device is created on first use
// and shared by every later connection.
type Connector struct {
	logger *logrus.Logger

	mu  sync.Mutex
	dev ble.Device
}

// NewConnector creates a go-ble backed device.Connector
func NewConnector(logger *logrus.Logger) *Connector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Connector{logger: logger}
}

func (c *Connector) device() (ble.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil {
		return c.dev, nil
	}
	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", device.NormalizeError(err))
	}
	c.dev = dev
	return dev, nil
}

// Connect dials the peripheral and discovers its GATT profile
func (c *Connector) Connect(ctx context.Context, opts *device.ConnectOptions) (device.Connection, error) {
	if opts == nil || strings.TrimSpace(opts.Address) == "" {
		c.logger.Error("Connection attempt with empty address")
		return nil, fmt.Errorf("device address is empty")
	}
	address := opts.Address

	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	dev, err := c.device()
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": connectTimeout,
	}).Info("Connecting to BLE device...")

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := dial(connCtx, dev, address)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Error("Failed to dial BLE device")
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, device.NormalizeError(err))
	}

	c.logger.WithField("address", address).Debug("Discovering services and characteristics...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			c.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return nil, fmt.Errorf("failed to discover profile: %w", device.NormalizeError(err))
	}

	conn := newConnection(client, address, readTimeout, c.logger)
	conn.index(profile)

	c.logger.WithFields(logrus.Fields{
		"address":         address,
		"characteristics": conn.chars.Len(),
	}).Info("BLE device connected successfully")

	return conn, nil
}

// ----------------------------
// Connection
// ----------------------------

// Connection is one live go-ble client connection
type Connection struct {
	client      gattClient
	address     string
	readTimeout time.Duration
	logger      *logrus.Logger

	chars  *hashmap.Map[string, *ble.Characteristic] // normalized UUID -> characteristic
	closed atomic.Bool
}

func newConnection(client gattClient, address string, readTimeout time.Duration, logger *logrus.Logger) *Connection {
	return &Connection{
		client:      client,
		address:     address,
		readTimeout: readTimeout,
		logger:      logger,
		chars:       hashmap.New[string, *ble.Characteristic](),
	}
}

func (c *Connection) index(profile *ble.Profile) {
	if profile == nil {
		return
	}
	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			uuid := device.NormalizeUUID(char.UUID.String())
			c.logger.WithFields(logrus.Fields{
				"service_uuid": svc.UUID.String(),
				"char_uuid":    uuid,
			}).Debug("Found characteristic UUID")
			c.chars.Set(uuid, char)
		}
	}
}

// Characteristics returns the normalized UUIDs of every discovered characteristic, sorted
func (c *Connection) Characteristics() []string {
	uuids := make([]string, 0, c.chars.Len())
	c.chars.Range(func(key string, _ *ble.Characteristic) bool {
		uuids = append(uuids, key)
		return true
	})
	sort.Strings(uuids)
	return uuids
}

// ReadCharacteristic reads the current value of a characteristic by UUID.
// The read is bounded by both ctx and the connection read timeout.
func (c *Connection) ReadCharacteristic(ctx context.Context, uuid string) ([]byte, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("%w: characteristic %s", device.ErrNotConnected, uuid)
	}

	key := device.NormalizeUUID(uuid)
	char, ok := c.chars.Get(key)
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUID: uuid}
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		data, err := c.client.ReadCharacteristic(char)
		resultCh <- readResult{data: data, err: err}
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

// Disconnect cancels the connection. Safe to call more than once.
func (c *Connection) Disconnect() error {
	if !c.closed.CompareAndSwap(false, true) {
		c.logger.Debug("Disconnect called but already disconnected")
		return nil
	}

	c.logger.WithField("address", c.address).Info("Disconnecting BLE device...")
	if err := c.client.CancelConnection(); err != nil {
		c.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		return device.NormalizeError(err)
	}
	c.logger.Info("BLE device disconnected successfully")
	return nil
}
