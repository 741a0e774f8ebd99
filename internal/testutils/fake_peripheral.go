package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/srg/hai/internal/device"
)

// FakePeripheral is an in-memory GATT server. It implements device.Connection
// (and therefore telemetry.GattReader) and records the order of reads.
//
// Usage:
//
//	p := testutils.NewFakePeripheral().
//	    WithValue("e6221401-e12f-40f2-b0f5-aaa011c0aa8d", []byte{1, 0, 0, 0}).
//	    WithError("e622140a-e12f-40f2-b0f5-aaa011c0aa8d", device.ErrNotConnected)
type FakePeripheral struct {
	values *hashmap.Map[string, []byte]
	errs   *hashmap.Map[string, error]

	mu    sync.Mutex
	reads []string

	// OnRead runs before every read, after it has been recorded
	OnRead func(uuid string)

	disconnects atomic.Int32
}

// NewFakePeripheral creates an empty peripheral
func NewFakePeripheral() *FakePeripheral {
	return &FakePeripheral{
		values: hashmap.New[string, []byte](),
		errs:   hashmap.New[string, error](),
	}
}

// WithValue sets the raw wire bytes returned for uuid
func (p *FakePeripheral) WithValue(uuid string, data []byte) *FakePeripheral {
	p.values.Set(device.NormalizeUUID(uuid), data)
	return p
}

// WithError makes every read of uuid fail with err
func (p *FakePeripheral) WithError(uuid string, err error) *FakePeripheral {
	p.errs.Set(device.NormalizeUUID(uuid), err)
	return p
}

// ReadCharacteristic returns a copy of the configured value
func (p *FakePeripheral) ReadCharacteristic(ctx context.Context, uuid string) ([]byte, error) {
	key := device.NormalizeUUID(uuid)

	p.mu.Lock()
	p.reads = append(p.reads, uuid)
	p.mu.Unlock()

	if p.OnRead != nil {
		p.OnRead(uuid)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := p.errs.Get(key); ok {
		return nil, err
	}
	data, ok := p.values.Get(key)
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUID: uuid}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Disconnect counts disconnects
func (p *FakePeripheral) Disconnect() error {
	p.disconnects.Add(1)
	return nil
}

// Reads returns the UUIDs read so far, in order
func (p *FakePeripheral) Reads() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.reads))
	copy(out, p.reads)
	return out
}

// Disconnects returns how many times Disconnect was called
func (p *FakePeripheral) Disconnects() int {
	return int(p.disconnects.Load())
}
