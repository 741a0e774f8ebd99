package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotFoundError represents an error when a GATT characteristic is not exposed by the peripheral
type NotFoundError struct {
	Resource string // "service", "characteristic"
	UUID     string
}

func (e *NotFoundError) Error() string {
	if e.UUID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.UUID)
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	BluetoothOff     ConnectionState = "bluetooth_off"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrBluetoothOff     = &ConnectionError{State: BluetoothOff}
)

// Operation errors
var (
	ErrTimeout     = errors.New("timeout")
	ErrUnsupported = errors.New("unsupported")
)

// NormalizeError maps known backend error strings to structured ConnectionError types.
// Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "is bluetooth turned on"),
		containsIgnoreCase(msg, "bluetooth is turned off"),
		containsIgnoreCase(msg, "adapter not powered"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	default:
		return err
	}
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}

// ConnectOptions defines BLE connection options
type ConnectOptions struct {
	Address        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration // per characteristic read
}

// Connection is a live GATT client connection. It satisfies telemetry.GattReader.
type Connection interface {
	ReadCharacteristic(ctx context.Context, uuid string) ([]byte, error)
	Disconnect() error
}

// Connector establishes connections through one BLE backend
type Connector interface {
	Connect(ctx context.Context, opts *ConnectOptions) (Connection, error)
}

// ConnectorFunc adapts a function to Connector
type ConnectorFunc func(ctx context.Context, opts *ConnectOptions) (Connection, error)

// Connect calls f(ctx, opts)
func (f ConnectorFunc) Connect(ctx context.Context, opts *ConnectOptions) (Connection, error) {
	return f(ctx, opts)
}
