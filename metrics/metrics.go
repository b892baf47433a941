package metrics

import (
	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Total readings accepted by the ingest endpoint
var ReadingsIngested = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "urbangrow_sensor_readings_total",
		Help: "The total number of stored sensor readings",
	},
)

var ActuatorChanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "urbangrow_actuator_changes_total",
		Help: "Actuator control requests applied, by field and value",
	},
	[]string{"field", "value"},
)

var WaterTemperature = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "urbangrow_water_temperature_celsius",
		Help: "Temperature of the most recent reading",
	},
)

var WaterPH = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "urbangrow_water_ph",
		Help: "pH of the most recent reading",
	},
)

var LightLevel = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "urbangrow_ldr_value",
		Help: "Raw light sensor value of the most recent reading",
	},
)

var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "urbangrow_http_requests_total",
		Help: "HTTP requests served, by method, route and status",
	},
	[]string{"method", "route", "status"},
)

// 0 disconnected, 1 connecting, 2 connected
var DatabaseState = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "urbangrow_database_state",
		Help: "Connection supervisor state (0 disconnected, 1 connecting, 2 connected)",
	},
)

// ObserveReading records the gauges for a freshly stored reading.
func ObserveReading(r models.SensorReading) {
	ReadingsIngested.Inc()
	WaterTemperature.Set(r.Temperature)
	WaterPH.Set(r.PH)
	LightLevel.Set(float64(r.LDRValue))
}

// ObserveActuator counts an applied actuator change.
func ObserveActuator(field models.ActuatorField, value models.SwitchState) {
	ActuatorChanges.WithLabelValues(string(field), string(value)).Inc()
}
