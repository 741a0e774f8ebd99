package telemetry_test

import (
	"testing"
	"time"

	"github.com/srg/hai/internal/telemetry"
	"github.com/stretchr/testify/assert"
)

func fieldKeys(s telemetry.Snapshot) []string {
	var keys []string
	for pair := s.Fields().Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func TestSnapshot_Fields(t *testing.T) {
	snap := telemetry.Snapshot{
		SessionActive: true,
		Current: telemetry.CurrentSession{
			DurationS:           95,
			TemperatureC:        25,
			VolumeML:            4200,
			LifetimeVolumeML:    1234567,
			AverageTemperatureC: 38.12,
		},
		Last: telemetry.LastSession{DurationS: 180, AverageTemperatureC: 37.5, VolumeML: 12000},
	}

	assert.Equal(t, []string{
		telemetry.SensorShowering,
		telemetry.SensorCurrentDuration,
		telemetry.SensorCurrentTemperature,
		telemetry.SensorCurrentVolume,
		telemetry.SensorTotalVolume,
		telemetry.SensorAverageTemperature,
		telemetry.SensorLastDuration,
		telemetry.SensorLastAvgTemperature,
		telemetry.SensorLastVolume,
	}, fieldKeys(snap))

	fields := snap.Fields()
	showering, _ := fields.Get(telemetry.SensorShowering)
	assert.Equal(t, 1.0, showering.Value)

	temp, _ := fields.Get(telemetry.SensorLastAvgTemperature)
	assert.Equal(t, telemetry.Reading{Value: 37.5, Unit: telemetry.UnitCelsius}, temp)

	assert.Equal(t, 95*time.Second, snap.Current.Duration())
	assert.Equal(t, 3*time.Minute, snap.Last.Duration())
}

func TestSnapshot_FieldsInactive(t *testing.T) {
	snap := telemetry.Snapshot{Last: telemetry.LastSession{VolumeML: 12000}}

	assert.Equal(t, []string{
		telemetry.SensorShowering,
		telemetry.SensorLastDuration,
		telemetry.SensorLastAvgTemperature,
		telemetry.SensorLastVolume,
	}, fieldKeys(snap), "current-session sensors MUST be absent while idle")

	showering, _ := snap.Fields().Get(telemetry.SensorShowering)
	assert.Zero(t, showering.Value)
}

func TestSnapshot_CopiesAreIndependent(t *testing.T) {
	a := telemetry.Snapshot{Identity: telemetry.Identity{ProductID: "AA"}}
	b := a
	b.Identity.ProductID = "BB"
	assert.Equal(t, "AA", a.Identity.ProductID)
}
