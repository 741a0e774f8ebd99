package telemetry

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/hai/internal/codec"
)

// GattReader reads the raw value of a characteristic by UUID. It may block
// (radio round-trip); implementations should honour ctx.
type GattReader interface {
	ReadCharacteristic(ctx context.Context, uuid string) ([]byte, error)
}

// GattReaderFunc adapts a function to GattReader
type GattReaderFunc func(ctx context.Context, uuid string) ([]byte, error)

// ReadCharacteristic calls f(ctx, uuid)
func (f GattReaderFunc) ReadCharacteristic(ctx context.Context, uuid string) ([]byte, error) {
	return f(ctx, uuid)
}

// GattReadError reports a transport failure while reading one characteristic
type GattReadError struct {
	Field string
	UUID  string
	Err   error
}

func (e *GattReadError) Error() string {
	return fmt.Sprintf("read %s (%s): %v", e.Field, e.UUID, e.Err)
}

func (e *GattReadError) Unwrap() error {
	return e.Err
}

// Reader turns a sequence of characteristic reads into a Snapshot.
// It holds no connection state and may be shared between concurrent polls.
type Reader struct {
	logger *logrus.Logger
	key    []byte
}

// Option configures a Reader
type Option func(*Reader)

// WithKey overrides the XOR key used for encrypted characteristics
func WithKey(key []byte) Option {
	return func(r *Reader) {
		r.key = slices.Clone(key)
	}
}

// NewReader creates a Reader using the device default key
func NewReader(logger *logrus.Logger, opts ...Option) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	r := &Reader{
		logger: logger,
		key:    codec.DefaultKey(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadSnapshot performs the full read sequence. Reads are issued one at a time
// in a fixed order; the first failure aborts the poll and no snapshot is returned.
func (r *Reader) ReadSnapshot(ctx context.Context, gatt GattReader) (Snapshot, error) {
	var snap Snapshot

	rec, err := r.readRecord(ctx, gatt, sessionIDSpec)
	if err != nil {
		return Snapshot{}, err
	}
	sessionID := rec.Uint32(FieldValue)

	if rec, err = r.readRecord(ctx, gatt, softwareVersionSpec); err != nil {
		return Snapshot{}, err
	}
	snap.Identity.SoftwareVersion = fmt.Sprintf("%.2f", softwareVersionSpec.Scaled(rec, FieldValue))

	if rec, err = r.readRecord(ctx, gatt, hardwareVersionSpec); err != nil {
		return Snapshot{}, err
	}
	hw, _ := rec.Int(FieldValue)
	snap.Identity.HardwareVersion = strings.ToUpper(strconv.FormatInt(hw, 10))

	raw, err := r.readPayload(ctx, gatt, productIDSpec)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Identity.ProductID = strings.ToUpper(hex.EncodeToString(raw))

	snap.SessionActive = IsActive(sessionID)
	if snap.SessionActive {
		r.logger.WithField("session_id", fmt.Sprintf("%x", sessionID)).Debug("Shower session active")
		if snap.Current, err = r.readCurrentSession(ctx, gatt); err != nil {
			return Snapshot{}, err
		}
	} else {
		r.logger.Debug("No shower session")
	}

	if rec, err = r.readRecord(ctx, gatt, lastSessionSpec); err != nil {
		return Snapshot{}, err
	}
	snap.Last = LastSession{
		DurationS:           uint16(rec.Uint32(FieldDurationS)),
		AverageTemperatureC: lastSessionSpec.Scaled(rec, FieldTempCentiC),
		VolumeML:            rec.Uint32(FieldVolumeML),
		SessionID:           rec.Uint32(FieldSessionID),
		StartTimestamp:      rec.Uint32(FieldStartTimestamp),
		InitialTemperatureC: lastSessionSpec.Scaled(rec, FieldInitialTempCentiC),
	}

	return snap, nil
}

func (r *Reader) readCurrentSession(ctx context.Context, gatt GattReader) (CurrentSession, error) {
	var cur CurrentSession
	for _, spec := range currentSessionSpecs {
		rec, err := r.readRecord(ctx, gatt, spec)
		if err != nil {
			return CurrentSession{}, err
		}
		switch spec.ID {
		case UUIDCurrentTemp:
			cur.TemperatureC = spec.Scaled(rec, FieldValue)
		case UUIDCurrentVolume:
			cur.VolumeML = rec.Uint32(FieldValue)
		case UUIDCurrentDuration:
			cur.DurationS = uint16(rec.Uint32(FieldValue))
		case UUIDLifetimeVolume:
			cur.LifetimeVolumeML = rec.Uint32(FieldValue)
		case UUIDAverageTemp:
			cur.AverageTemperatureC = spec.Scaled(rec, FieldValue)
		}
	}
	return cur, nil
}

// Decode decrypts (for encrypted characteristics) and unpacks a captured payload
func (r *Reader) Decode(spec CharacteristicSpec, payload []byte) (*codec.Record, error) {
	data, err := r.decrypt(spec, payload)
	if err != nil {
		return nil, err
	}
	rec, err := codec.Decode(data, spec.Layout)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", spec.Name, err)
	}
	return rec, nil
}

func (r *Reader) readRecord(ctx context.Context, gatt GattReader, spec CharacteristicSpec) (*codec.Record, error) {
	raw, err := r.readRaw(ctx, gatt, spec)
	if err != nil {
		return nil, err
	}
	return r.Decode(spec, raw)
}

// readPayload returns the (decrypted) bytes of a characteristic without a layout
func (r *Reader) readPayload(ctx context.Context, gatt GattReader, spec CharacteristicSpec) ([]byte, error) {
	raw, err := r.readRaw(ctx, gatt, spec)
	if err != nil {
		return nil, err
	}
	return r.decrypt(spec, raw)
}

func (r *Reader) readRaw(ctx context.Context, gatt GattReader, spec CharacteristicSpec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := gatt.ReadCharacteristic(ctx, spec.ID)
	if err != nil {
		return nil, &GattReadError{Field: spec.Name, UUID: spec.ID, Err: err}
	}

	r.logger.WithFields(logrus.Fields{
		"field": spec.Name,
		"uuid":  spec.ID,
		"data":  hex.EncodeToString(data),
	}).Debug("Read characteristic")

	return data, nil
}

func (r *Reader) decrypt(spec CharacteristicSpec, data []byte) ([]byte, error) {
	if !spec.Encrypted {
		return data, nil
	}
	out, err := codec.Xor(data, r.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", spec.Name, err)
	}
	return out, nil
}
