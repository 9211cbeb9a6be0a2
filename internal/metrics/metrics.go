// Package metrics exposes Prometheus instrumentation for the control loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// Metrics holds the Prometheus collectors for the daemon.
type Metrics struct {
	temperature  prometheus.Gauge
	humidity     prometheus.Gauge
	soilMoisture prometheus.Gauge
	acidity      prometheus.Gauge
	lightLevel   prometheus.Gauge
	rainLevel    prometheus.Gauge
	raining      prometheus.Gauge

	actuatorState *prometheus.GaugeVec

	cycles      prometheus.Counter
	invalid     prometheus.Counter
	transitions *prometheus.CounterVec
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_temperature_celsius",
			Help: "Air temperature from the last valid snapshot.",
		}),
		humidity: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_humidity_percent",
			Help: "Relative humidity from the last valid snapshot.",
		}),
		soilMoisture: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_soil_moisture_percent",
			Help: "Calibrated soil moisture from the last valid snapshot.",
		}),
		acidity: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_acidity_ph",
			Help: "Calibrated soil pH from the last valid snapshot.",
		}),
		lightLevel: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_light_level",
			Help: "Raw ambient light reading from the last valid snapshot.",
		}),
		rainLevel: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_rain_level",
			Help: "Raw rain sensor reading from the last valid snapshot.",
		}),
		raining: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenhouse_raining",
			Help: "1 when rain is detected, 0 otherwise.",
		}),
		actuatorState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "greenhouse_actuator_state",
			Help: "Current actuator state (1 on, 0 off).",
		}, []string{"actuator"}),
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "greenhouse_cycles_total",
			Help: "Control loop cycles executed.",
		}),
		invalid: f.NewCounter(prometheus.CounterOpts{
			Name: "greenhouse_invalid_readings_total",
			Help: "Cycles skipped because the sensor snapshot was invalid.",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenhouse_transitions_total",
			Help: "Actuator transitions by actuator, direction and source.",
		}, []string{"actuator", "direction", "source"}),
	}
}

// ObserveCycle counts one control loop iteration.
func (m *Metrics) ObserveCycle() {
	m.cycles.Inc()
}

// ObserveInvalid counts a cycle skipped for an invalid snapshot.
func (m *Metrics) ObserveInvalid() {
	m.cycles.Inc()
	m.invalid.Inc()
}

// ObserveSnapshot records sensor values from a valid snapshot.
func (m *Metrics) ObserveSnapshot(snap logic.Snapshot) {
	m.temperature.Set(snap.Temperature)
	m.humidity.Set(snap.Humidity)
	m.soilMoisture.Set(float64(snap.SoilMoisture))
	m.acidity.Set(snap.Acidity)
	m.lightLevel.Set(float64(snap.LightLevel))
	m.rainLevel.Set(float64(snap.RainLevel))
	if snap.IsRaining {
		m.raining.Set(1)
	} else {
		m.raining.Set(0)
	}
}

// ObserveState records the current actuator state.
func (m *Metrics) ObserveState(state logic.ActuatorState) {
	for _, a := range logic.Actuators {
		v := 0.0
		if state.Get(a) {
			v = 1
		}
		m.actuatorState.WithLabelValues(string(a)).Set(v)
	}
}

// ObserveTransition counts an actuator transition. Source is "policy" for
// hysteresis decisions and "manual" for MQTT overrides.
func (m *Metrics) ObserveTransition(tr logic.Transition, source string) {
	direction := "off"
	if tr.On {
		direction = "on"
	}
	m.transitions.WithLabelValues(string(tr.Actuator), direction, source).Inc()
}
