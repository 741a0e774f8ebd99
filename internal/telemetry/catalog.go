package telemetry

import (
	"maps"
	"slices"
	"strings"

	"github.com/srg/hai/internal/codec"
)

// Characteristic UUIDs of the Hai shower head (128-bit, vendor base e622xxxx-e12f-40f2-b0f5-aaa011c0aa8d)
const (
	UUIDSessionID       = "e6221401-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDCurrentTemp     = "e6221402-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDAverageTemp     = "e6221403-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDCurrentVolume   = "e6221404-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDCurrentDuration = "e6221406-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDLifetimeVolume  = "e6221408-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDLastSession     = "e622140a-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDProductID       = "e622140b-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDSoftwareVersion = "e622150b-e12f-40f2-b0f5-aaa011c0aa8d"
	UUIDHardwareVersion = "e622150c-e12f-40f2-b0f5-aaa011c0aa8d"
)

// Units
const (
	UnitNone        = ""
	UnitCelsius     = "°C"
	UnitSeconds     = "s"
	UnitMilliliters = "mL"
)

// centi is the divisor for values transmitted in hundredths
const centi = 100

// Last-session record field names
const (
	FieldSessionID         = "session_id"
	FieldTempCentiC        = "temp_centi_c"
	FieldDurationS         = "duration_s"
	FieldVolumeML          = "volume_ml"
	FieldStartTimestamp    = "start_timestamp"
	FieldInitialTempCentiC = "initial_temp_centi_c"
	FieldValue             = "value"
)

// CharacteristicSpec declares how one characteristic is laid out on the wire
type CharacteristicSpec struct {
	Name      string
	ID        string
	Layout    codec.Layout // empty for raw byte characteristics
	Encrypted bool
	Scale     float64            // divisor for every field, 1 when unscaled
	Scales    map[string]float64 // per-field divisors overriding Scale
	Unit      string
	Units     map[string]string // per-field units overriding Unit
}

// Raw reports whether the characteristic has no structured layout
func (s CharacteristicSpec) Raw() bool {
	return len(s.Layout) == 0
}

// ScaleFor returns the divisor for the named field
func (s CharacteristicSpec) ScaleFor(field string) float64 {
	if d, ok := s.Scales[field]; ok && d != 0 {
		return d
	}
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// UnitFor returns the unit of the named field after scaling
func (s CharacteristicSpec) UnitFor(field string) string {
	if u, ok := s.Units[field]; ok {
		return u
	}
	return s.Unit
}

// clone returns a copy sharing no slices or maps with s
func (s CharacteristicSpec) clone() CharacteristicSpec {
	s.Layout = slices.Clone(s.Layout)
	s.Scales = maps.Clone(s.Scales)
	s.Units = maps.Clone(s.Units)
	return s
}

// Scaled returns the named field of rec divided by its scale
func (s CharacteristicSpec) Scaled(rec *codec.Record, field string) float64 {
	v, _ := rec.Int(field)
	return float64(v) / s.ScaleFor(field)
}

// Catalog entries. Callers only ever see copies, see Catalog and Lookup.
var (
	sessionIDSpec = CharacteristicSpec{
		Name:   "session_id",
		ID:     UUIDSessionID,
		Layout: codec.Layout{codec.U32(FieldValue)},
		Scale:  1,
	}
	currentTempSpec = CharacteristicSpec{
		Name:   "current_temp",
		ID:     UUIDCurrentTemp,
		Layout: codec.Layout{codec.U16(FieldValue)},
		Scale:  centi,
		Unit:   UnitCelsius,
	}
	averageTempSpec = CharacteristicSpec{
		Name:   "average_temp",
		ID:     UUIDAverageTemp,
		Layout: codec.Layout{codec.U16(FieldValue)},
		Scale:  centi,
		Unit:   UnitCelsius,
	}
	currentVolumeSpec = CharacteristicSpec{
		Name:      "current_volume",
		ID:        UUIDCurrentVolume,
		Layout:    codec.Layout{codec.U32(FieldValue)},
		Encrypted: true,
		Scale:     1,
		Unit:      UnitMilliliters,
	}
	currentDurationSpec = CharacteristicSpec{
		Name:      "current_duration",
		ID:        UUIDCurrentDuration,
		Layout:    codec.Layout{codec.U16(FieldValue)},
		Encrypted: true,
		Scale:     1,
		Unit:      UnitSeconds,
	}
	lifetimeVolumeSpec = CharacteristicSpec{
		Name:      "lifetime_volume",
		ID:        UUIDLifetimeVolume,
		Layout:    codec.Layout{codec.U32(FieldValue)},
		Encrypted: true,
		Scale:     1,
		Unit:      UnitMilliliters,
	}
	lastSessionSpec = CharacteristicSpec{
		Name: "last_session",
		ID:   UUIDLastSession,
		Layout: codec.Layout{
			codec.U32(FieldSessionID),
			codec.U16(FieldTempCentiC),
			codec.U16(FieldDurationS),
			codec.U32(FieldVolumeML),
			codec.U32(FieldStartTimestamp),
			codec.U16(FieldInitialTempCentiC),
		},
		Encrypted: true,
		Scale:     1,
		Scales: map[string]float64{
			FieldTempCentiC:        centi,
			FieldInitialTempCentiC: centi,
		},
		Units: map[string]string{
			FieldTempCentiC:        UnitCelsius,
			FieldDurationS:         UnitSeconds,
			FieldVolumeML:          UnitMilliliters,
			FieldInitialTempCentiC: UnitCelsius,
		},
	}
	productIDSpec = CharacteristicSpec{
		Name: "product_id",
		ID:   UUIDProductID,
	}
	softwareVersionSpec = CharacteristicSpec{
		Name:   "software_version",
		ID:     UUIDSoftwareVersion,
		Layout: codec.Layout{codec.U16(FieldValue)},
		Scale:  centi,
	}
	hardwareVersionSpec = CharacteristicSpec{
		Name:   "hardware_version",
		ID:     UUIDHardwareVersion,
		Layout: codec.Layout{codec.U8(FieldValue)},
		Scale:  1,
	}
)

// currentSessionSpecs are read only while a session is active, in this order
var currentSessionSpecs = []CharacteristicSpec{
	currentTempSpec,
	currentVolumeSpec,
	currentDurationSpec,
	lifetimeVolumeSpec,
	averageTempSpec,
}

// wireTable lists every characteristic in wire table order
var wireTable = []CharacteristicSpec{
	sessionIDSpec,
	currentTempSpec,
	averageTempSpec,
	currentVolumeSpec,
	currentDurationSpec,
	lifetimeVolumeSpec,
	lastSessionSpec,
	productIDSpec,
	softwareVersionSpec,
	hardwareVersionSpec,
}

// Catalog returns a copy of every characteristic in wire table order
func Catalog() []CharacteristicSpec {
	out := make([]CharacteristicSpec, len(wireTable))
	for i, spec := range wireTable {
		out[i] = spec.clone()
	}
	return out
}

// Lookup finds a catalog entry by name or UUID (case-insensitive, dashes optional)
func Lookup(key string) (CharacteristicSpec, bool) {
	want := normalizeKey(key)
	for _, spec := range wireTable {
		if normalizeKey(spec.Name) == want || normalizeKey(spec.ID) == want {
			return spec.clone(), true
		}
	}
	return CharacteristicSpec{}, false
}

func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "")
}
