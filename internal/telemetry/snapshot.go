package telemetry

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Sensor keys used by presentation layers (metrics labels, table rows)
const (
	SensorCurrentDuration    = "current_session_duration"
	SensorCurrentTemperature = "current_session_temp"
	SensorCurrentVolume      = "current_shower_volume"
	SensorTotalVolume        = "total_volume"
	SensorAverageTemperature = "average_temperature"
	SensorLastVolume         = "last_shower_volume"
	SensorLastAvgTemperature = "last_shower_avg_temp"
	SensorLastDuration       = "last_shower_duration"
	SensorShowering          = "showering"
)

// Identity describes the device firmware and hardware
type Identity struct {
	HardwareVersion string `json:"hardware_version" yaml:"hardware_version"`
	SoftwareVersion string `json:"software_version" yaml:"software_version"`
	ProductID       string `json:"product_id" yaml:"product_id"`
}

// CurrentSession holds the in-progress shower readings. All zero when no session is active.
type CurrentSession struct {
	DurationS           uint16  `json:"duration_s" yaml:"duration_s"`
	TemperatureC        float64 `json:"temperature_c" yaml:"temperature_c"`
	VolumeML            uint32  `json:"volume_ml" yaml:"volume_ml"`
	LifetimeVolumeML    uint32  `json:"lifetime_volume_ml" yaml:"lifetime_volume_ml"`
	AverageTemperatureC float64 `json:"average_temperature_c" yaml:"average_temperature_c"`
}

// Duration returns the session duration
func (c CurrentSession) Duration() time.Duration {
	return time.Duration(c.DurationS) * time.Second
}

// LastSession holds the most recently completed shower.
// SessionID, StartTimestamp and InitialTemperatureC are decoded from the record
// but not surfaced as sensors.
type LastSession struct {
	DurationS           uint16  `json:"duration_s" yaml:"duration_s"`
	AverageTemperatureC float64 `json:"average_temperature_c" yaml:"average_temperature_c"`
	VolumeML            uint32  `json:"volume_ml" yaml:"volume_ml"`

	SessionID           uint32  `json:"session_id" yaml:"session_id"`
	StartTimestamp      uint32  `json:"start_timestamp" yaml:"start_timestamp"`
	InitialTemperatureC float64 `json:"initial_temperature_c" yaml:"initial_temperature_c"`
}

// Duration returns the last session duration
func (l LastSession) Duration() time.Duration {
	return time.Duration(l.DurationS) * time.Second
}

// Snapshot is one complete decoded reading from a single poll.
// It is a plain value: copies share nothing.
type Snapshot struct {
	Identity      Identity       `json:"identity" yaml:"identity"`
	SessionActive bool           `json:"session_active" yaml:"session_active"`
	Current       CurrentSession `json:"current_session" yaml:"current_session"`
	Last          LastSession    `json:"last_session" yaml:"last_session"`
}

// Reading is a surfaced sensor value with its unit
type Reading struct {
	Value float64
	Unit  string
}

// Fields returns the surfaced sensors keyed by sensor key, in display order.
// Current-session sensors are present only while a session is active.
func (s Snapshot) Fields() *orderedmap.OrderedMap[string, Reading] {
	fields := orderedmap.New[string, Reading]()

	showering := 0.0
	if s.SessionActive {
		showering = 1
	}
	fields.Set(SensorShowering, Reading{Value: showering})

	if s.SessionActive {
		fields.Set(SensorCurrentDuration, Reading{Value: float64(s.Current.DurationS), Unit: UnitSeconds})
		fields.Set(SensorCurrentTemperature, Reading{Value: s.Current.TemperatureC, Unit: UnitCelsius})
		fields.Set(SensorCurrentVolume, Reading{Value: float64(s.Current.VolumeML), Unit: UnitMilliliters})
		fields.Set(SensorTotalVolume, Reading{Value: float64(s.Current.LifetimeVolumeML), Unit: UnitMilliliters})
		fields.Set(SensorAverageTemperature, Reading{Value: s.Current.AverageTemperatureC, Unit: UnitCelsius})
	}

	fields.Set(SensorLastDuration, Reading{Value: float64(s.Last.DurationS), Unit: UnitSeconds})
	fields.Set(SensorLastAvgTemperature, Reading{Value: s.Last.AverageTemperatureC, Unit: UnitCelsius})
	fields.Set(SensorLastVolume, Reading{Value: float64(s.Last.VolumeML), Unit: UnitMilliliters})

	return fields
}
