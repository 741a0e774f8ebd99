// Package metrics exposes polled shower head readings as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/srg/hai/internal/poller"
	"github.com/srg/hai/internal/telemetry"
)

// Poll outcome label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// currentSensors disappear from the exposition while no session is active
var currentSensors = []string{
	telemetry.SensorCurrentDuration,
	telemetry.SensorCurrentTemperature,
	telemetry.SensorCurrentVolume,
	telemetry.SensorTotalVolume,
	telemetry.SensorAverageTemperature,
}

// Exporter keeps the latest snapshot of every watched device as gauges.
// It owns its registry so several exporters can coexist in one process.
type Exporter struct {
	registry *prometheus.Registry
	sensors  *prometheus.GaugeVec
	active   *prometheus.GaugeVec
	polls    *prometheus.CounterVec
	lastPoll *prometheus.GaugeVec
}

// NewExporter creates an Exporter with its metrics registered
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		sensors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hai_sensor_value",
			Help: "Latest decoded sensor value (seconds, degrees Celsius or millilitres).",
		}, []string{"address", "sensor"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hai_session_active",
			Help: "1 while a shower session is in progress.",
		}, []string{"address"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hai_polls_total",
			Help: "Completed polls by outcome.",
		}, []string{"address", "result"}),
		lastPoll: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hai_last_success_timestamp_seconds",
			Help: "Unix time of the last successful poll.",
		}, []string{"address"}),
	}
	e.registry.MustRegister(e.sensors, e.active, e.polls, e.lastPoll)
	return e
}

// Observe records one watch cycle. A failed cycle only bumps the error counter;
// the gauges keep the last good values.
func (e *Exporter) Observe(res poller.Result) {
	if res.Err != nil {
		e.polls.WithLabelValues(res.Address, ResultError).Inc()
		return
	}
	e.polls.WithLabelValues(res.Address, ResultSuccess).Inc()
	e.lastPoll.WithLabelValues(res.Address).Set(float64(res.At.Unix()))

	snap := res.Snapshot
	if snap.SessionActive {
		e.active.WithLabelValues(res.Address).Set(1)
	} else {
		e.active.WithLabelValues(res.Address).Set(0)
		for _, sensor := range currentSensors {
			e.sensors.DeleteLabelValues(res.Address, sensor)
		}
	}

	for pair := snap.Fields().Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == telemetry.SensorShowering {
			continue
		}
		e.sensors.WithLabelValues(res.Address, pair.Key).Set(pair.Value.Value)
	}
}

// Registry returns the registry the exporter's metrics live in
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the exporter's metrics in the Prometheus exposition format
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
