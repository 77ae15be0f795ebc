package deebot

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exposes the canonical device state as Prometheus
// metrics. Collection reads the in-memory snapshot only; it never
// touches the transport.
type MetricsCollector struct {
	session *Session

	batteryLevel   *prometheus.GaugeVec
	cleanReport    *prometheus.GaugeVec
	chargeStatus   *prometheus.GaugeVec
	cleanSpeed     *prometheus.GaugeVec
	errorCode      *prometheus.GaugeVec
	lifespan       *prometheus.GaugeVec
	totalArea      *prometheus.GaugeVec
	totalSeconds   *prometheus.GaugeVec
	totalCleanings *prometheus.GaugeVec
}

func NewMetricsCollector(session *Session) *MetricsCollector {
	labels := []string{"device_id", "device_name", "device_class"}
	return &MetricsCollector{
		session: session,
		batteryLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_battery_percent",
			Help: "Battery percentage (0-100)",
		}, labels),
		cleanReport: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_clean_state",
			Help: "Clean-mode report (label)",
		}, append(labels, "state")),
		chargeStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_charge_status",
			Help: "Charge status (label)",
		}, append(labels, "status")),
		cleanSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_fan_speed",
			Help: "Fan speed (label)",
		}, append(labels, "speed")),
		errorCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_error_code",
			Help: "Device error code (label); code 0 means no error",
		}, append(labels, "code")),
		lifespan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_component_lifespan_percent",
			Help: "Component remaining life percentage",
		}, append(labels, "component")),
		totalArea: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_total_cleaning_area_square_meters",
			Help: "Lifetime cleaned area (square meters)",
		}, labels),
		totalSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_total_cleaning_time_seconds",
			Help: "Lifetime cleaning time (seconds)",
		}, labels),
		totalCleanings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "deebot_total_cleaning_count",
			Help: "Lifetime cleaning count",
		}, labels),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.batteryLevel.Describe(ch)
	c.cleanReport.Describe(ch)
	c.chargeStatus.Describe(ch)
	c.cleanSpeed.Describe(ch)
	c.errorCode.Describe(ch)
	c.lifespan.Describe(ch)
	c.totalArea.Describe(ch)
	c.totalSeconds.Describe(ch)
	c.totalCleanings.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	vacuum := c.session.Vacuum()
	state := c.session.State()
	labels := []string{vacuum.DID, vacuum.Nickname, vacuum.Class}

	c.batteryLevel.WithLabelValues(labels...).Set(state.BatteryLevel)
	c.totalArea.WithLabelValues(labels...).Set(float64(state.CleanSum.SquareMeters))
	c.totalSeconds.WithLabelValues(labels...).Set(float64(state.CleanSum.Seconds))
	c.totalCleanings.WithLabelValues(labels...).Set(float64(state.CleanSum.Count))

	c.cleanReport.Reset()
	if state.CleanReport != "" {
		c.cleanReport.WithLabelValues(append(labels, state.CleanReport)...).Set(1)
	}
	c.chargeStatus.Reset()
	if state.ChargeStatus != "" {
		c.chargeStatus.WithLabelValues(append(labels, state.ChargeStatus)...).Set(1)
	}
	c.cleanSpeed.Reset()
	if state.CleanSpeed != "" {
		c.cleanSpeed.WithLabelValues(append(labels, state.CleanSpeed)...).Set(1)
	}
	c.errorCode.Reset()
	c.errorCode.WithLabelValues(append(labels, state.Error.Code)...).Set(1)

	c.lifespan.Reset()
	for component, pct := range state.Components {
		c.lifespan.WithLabelValues(append(labels, component)...).Set(pct)
	}

	c.batteryLevel.Collect(ch)
	c.cleanReport.Collect(ch)
	c.chargeStatus.Collect(ch)
	c.cleanSpeed.Collect(ch)
	c.errorCode.Collect(ch)
	c.lifespan.Collect(ch)
	c.totalArea.Collect(ch)
	c.totalSeconds.Collect(ch)
	c.totalCleanings.Collect(ch)
}
