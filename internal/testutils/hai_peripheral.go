package testutils

import (
	"encoding/binary"

	"github.com/srg/hai/internal/codec"
	"github.com/srg/hai/internal/telemetry"
)

// LastSessionRecord mirrors the six fields of the last-session characteristic
type LastSessionRecord struct {
	SessionID         uint32
	TempCentiC        uint16
	DurationS         uint16
	VolumeML          uint32
	StartTimestamp    uint32
	InitialTempCentiC uint16
}

// Encode packs the record little-endian, unencrypted
func (r LastSessionRecord) Encode() []byte {
	b := make([]byte, 0, 18)
	b = binary.LittleEndian.AppendUint32(b, r.SessionID)
	b = binary.LittleEndian.AppendUint16(b, r.TempCentiC)
	b = binary.LittleEndian.AppendUint16(b, r.DurationS)
	b = binary.LittleEndian.AppendUint32(b, r.VolumeML)
	b = binary.LittleEndian.AppendUint32(b, r.StartTimestamp)
	b = binary.LittleEndian.AppendUint16(b, r.InitialTempCentiC)
	return b
}

// HaiState is the plain (decrypted) state a fake shower head exposes
type HaiState struct {
	SessionID         uint32
	SoftwareVersion   uint16 // hundredths
	HardwareVersion   uint8
	ProductID         []byte
	CurrentTempCentiC uint16
	AverageTempCentiC uint16
	CurrentVolumeML   uint32
	CurrentDurationS  uint16
	LifetimeVolumeML  uint32
	Last              LastSessionRecord
}

// DefaultHaiState returns a shower head in the middle of a session
func DefaultHaiState() HaiState {
	return HaiState{
		SessionID:         0x2a,
		SoftwareVersion:   123,
		HardwareVersion:   2,
		ProductID:         []byte{0xde, 0xad, 0xbe, 0xef},
		CurrentTempCentiC: 2500,
		AverageTempCentiC: 3812,
		CurrentVolumeML:   4200,
		CurrentDurationS:  95,
		LifetimeVolumeML:  1234567,
		Last: LastSessionRecord{
			SessionID:         5,
			TempCentiC:        3750,
			DurationS:         180,
			VolumeML:          12000,
			StartTimestamp:    1700000000,
			InitialTempCentiC: 3100,
		},
	}
}

// NewHaiPeripheral encodes state onto the Hai characteristics, XOR-encrypting
// the ones the device stores obfuscated
func NewHaiPeripheral(state HaiState) *FakePeripheral {
	p := NewFakePeripheral()

	p.WithValue(telemetry.UUIDSessionID, u32(state.SessionID))
	p.WithValue(telemetry.UUIDSoftwareVersion, u16(state.SoftwareVersion))
	p.WithValue(telemetry.UUIDHardwareVersion, []byte{state.HardwareVersion})
	p.WithValue(telemetry.UUIDProductID, state.ProductID)
	p.WithValue(telemetry.UUIDCurrentTemp, u16(state.CurrentTempCentiC))
	p.WithValue(telemetry.UUIDAverageTemp, u16(state.AverageTempCentiC))
	p.WithValue(telemetry.UUIDCurrentVolume, Encrypt(u32(state.CurrentVolumeML)))
	p.WithValue(telemetry.UUIDCurrentDuration, Encrypt(u16(state.CurrentDurationS)))
	p.WithValue(telemetry.UUIDLifetimeVolume, Encrypt(u32(state.LifetimeVolumeML)))
	p.WithValue(telemetry.UUIDLastSession, Encrypt(state.Last.Encode()))

	return p
}

// Encrypt applies the device XOR key
func Encrypt(plain []byte) []byte {
	out, err := codec.Xor(plain, codec.DefaultKey())
	if err != nil {
		panic(err)
	}
	return out
}

func u16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func u32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}
